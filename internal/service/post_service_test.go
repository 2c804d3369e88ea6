package service

import (
	"context"
	"strings"
	"testing"

	"pixelpost/internal/models"
	"pixelpost/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub overrides the PostRepository methods a test needs; the rest panic.
type postRepoStub struct {
	repository.PostRepository
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint, uint) (*models.Post, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, uint) error
	toggleLikeFn func(context.Context, uint, uint) (bool, int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	return s.toggleLikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:     func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:    func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id, IsPublic: true}, nil },
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn: func(_ context.Context, _, _ uint) (bool, int64, error) { return true, 1, nil },
	}
}

type imageRepoStub struct {
	repository.ImageRepository
	getByIDFn func(context.Context, uuid.UUID) (*models.GeneratedImage, error)
}

func (s *imageRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error) {
	return s.getByIDFn(ctx, id)
}

func ownedImageRepo(owner uint, tags ...string) *imageRepoStub {
	return &imageRepoStub{getByIDFn: func(_ context.Context, id uuid.UUID) (*models.GeneratedImage, error) {
		return &models.GeneratedImage{ID: id, UserID: owner, IsPublic: true, Hashtags: tags}, nil
	}}
}

func adminIs(ids ...uint) AdminChecker {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"missing image", CreatePostInput{UserID: 1, Title: "t"}},
		{"missing title", CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: "  "}},
		{"long title", CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: strings.Repeat("a", 201)}},
		{"long description", CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: "t", Description: strings.Repeat("a", 1001)}},
		{"long tags", CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: "t", Tags: strings.Repeat("a", 501)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPostService(noopPostRepo(), ownedImageRepo(1), nil, nil, nil)
			_, err := svc.CreatePost(context.Background(), tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestPostService_CreatePost_ForeignImage(t *testing.T) {
	repo := noopPostRepo()
	created := false
	repo.createFn = func(context.Context, *models.Post) error { created = true; return nil }
	svc := NewPostService(repo, ownedImageRepo(2), nil, nil, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: "mine?"})
	assertCode(t, err, models.CodeForbidden)
	assert.False(t, created)
}

func TestPostService_CreatePost_DefaultsTagsFromImage(t *testing.T) {
	repo := noopPostRepo()
	var saved *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error { p.ID = 9; saved = p; return nil }
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) { return saved, nil }
	svc := NewPostService(repo, ownedImageRepo(1, "aiart", "cat", "forest"), nil, nil, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, ImageID: uuid.New(), Title: " Cat "})
	require.NoError(t, err)
	assert.Equal(t, "Cat", post.Title)
	assert.Equal(t, "aiart,cat,forest", post.Tags)
	assert.Equal(t, []string{"aiart", "cat", "forest"}, post.TagsList())
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "ab,cd", joinTags([]string{"ab", "cd", "ef"}, 5))
	assert.Equal(t, "", joinTags([]string{"abcdef"}, 5))
	assert.Equal(t, "", joinTags(nil, 5))
}

func TestPostService_GetPost_PrivateImageHidden(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, IsPublic: true, GeneratedImage: &models.GeneratedImage{UserID: 1, IsPublic: false}}, nil
	}
	svc := NewPostService(repo, ownedImageRepo(1), nil, nil, nil)

	_, err := svc.GetPost(context.Background(), 5, 2)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.GetPost(context.Background(), 5, 0)
	assertCode(t, err, models.CodeNotFound)

	post, err := svc.GetPost(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(5), post.ID)
}

func TestPostService_DeletePost_Ownership(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		admins   []uint
		wantCode string
	}{
		{"owner", 1, nil, ""},
		{"stranger", 2, nil, models.CodeForbidden},
		{"admin", 3, []uint{3}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopPostRepo()
			repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 1, IsPublic: true}, nil
			}
			deleted := false
			repo.deleteFn = func(context.Context, uint) error { deleted = true; return nil }
			svc := NewPostService(repo, ownedImageRepo(1), nil, nil, adminIs(tt.admins...))

			err := svc.DeletePost(context.Background(), DeletePostInput{UserID: tt.userID, PostID: 4})
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.True(t, deleted)
				return
			}
			assertCode(t, err, tt.wantCode)
			assert.False(t, deleted)
		})
	}
}

func TestPostService_UpdatePost(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Title: "old", IsPublic: true}, nil
	}
	svc := NewPostService(repo, ownedImageRepo(1), nil, nil, nil)
	title, desc := "new", "described"

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 1, Title: &title})
	assertCode(t, err, models.CodeForbidden)

	empty := " "
	_, err = svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 1, Title: &empty})
	assertCode(t, err, models.CodeValidation)

	post, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 1, Title: &title, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new", post.Title)
	assert.Equal(t, "described", post.Description)
}

func TestPostService_SearchPosts_EmptyQuery(t *testing.T) {
	svc := NewPostService(noopPostRepo(), ownedImageRepo(1), nil, nil, nil)
	_, err := svc.SearchPosts(context.Background(), "  ", 10, 0, 0)
	assertCode(t, err, models.CodeValidation)
}

func TestPostService_ToggleLikeTwice(t *testing.T) {
	env := newTestEnv(t)
	owner, fan := env.user(t), env.user(t)
	img := env.storedImage(t, owner.ID, true)
	ctx := context.Background()
	svc := NewPostService(env.posts, env.images, env.store, nil, nil)

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: owner.ID, ImageID: img.ID, Title: "first light"})
	require.NoError(t, err)
	assert.Equal(t, img.ID, post.GeneratedImageID)

	_, err = svc.CreatePost(ctx, CreatePostInput{UserID: owner.ID, ImageID: img.ID, Title: "again"})
	assertCode(t, err, models.CodeConflict)

	res, err := svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.LikeCount)

	res, err = svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Zero(t, res.LikeCount)
}
