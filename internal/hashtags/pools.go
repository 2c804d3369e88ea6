package hashtags

type pool struct {
	key  string
	tags []string
}

var baseTags = []string{
	"aiart", "artificialintelligence", "digitalart", "generativeart",
	"machinelearning", "aiartist", "computervision", "deeplearning",
}

var styleTags = map[string][]string{
	"photorealistic": {"photorealistic", "hyperrealistic", "realistic", "photography"},
	"anime":          {"anime", "manga", "animeart", "otaku", "kawaii"},
	"abstract":       {"abstract", "abstractart", "modernart", "contemporary"},
	"fantasy":        {"fantasy", "fantasyart", "magical", "mythical", "enchanted"},
	"cyberpunk":      {"cyberpunk", "futuristic", "neon", "scifi", "dystopian"},
	"vintage":        {"vintage", "retro", "classic", "oldschool", "nostalgic"},
	"minimalist":     {"minimalist", "clean", "simple", "geometric"},
	"surreal":        {"surreal", "dreamlike", "psychedelic", "trippy"},
	"portrait":       {"portrait", "face", "character", "person"},
	"landscape":      {"landscape", "nature", "scenery", "outdoor"},
}

// contentPools are matched in order so seeded output stays stable.
var contentPools = []pool{
	{"cat", []string{"cat", "feline", "kitten", "pet"}},
	{"dog", []string{"dog", "canine", "puppy", "pet"}},
	{"bird", []string{"bird", "flying", "wings", "nature"}},
	{"dragon", []string{"dragon", "mythical", "fantasy", "legendary"}},
	{"forest", []string{"forest", "trees", "nature", "green", "woodland"}},
	{"ocean", []string{"ocean", "sea", "water", "blue", "waves"}},
	{"mountain", []string{"mountain", "peak", "landscape", "nature"}},
	{"flower", []string{"flower", "floral", "bloom", "garden", "nature"}},
	{"sunset", []string{"sunset", "golden", "warm", "evening", "sky"}},
	{"space", []string{"space", "galaxy", "stars", "cosmic", "universe"}},
	{"red", []string{"red", "crimson", "scarlet", "warm"}},
	{"blue", []string{"blue", "azure", "cool", "calm"}},
	{"green", []string{"green", "emerald", "nature", "fresh"}},
	{"purple", []string{"purple", "violet", "mystical", "royal"}},
	{"gold", []string{"gold", "golden", "luxury", "precious"}},
	{"dark", []string{"dark", "mysterious", "gothic", "shadow"}},
	{"bright", []string{"bright", "vibrant", "colorful", "cheerful"}},
	{"peaceful", []string{"peaceful", "calm", "serene", "tranquil"}},
	{"dramatic", []string{"dramatic", "intense", "powerful", "bold"}},
}

var trendingTags = []string{
	"midjourney", "stablediffusion", "dalle", "aiartcommunity",
	"promptengineering", "neuralnetwork", "creativity", "innovation",
	"digitalcreator", "artoftheday", "airevolution", "futureofart",
}

// popularTrending feeds the trending endpoint.
var popularTrending = []string{
	"aiartcommunity", "midjourney", "stablediffusion", "dalle",
	"aiartwork", "generativeart", "digitalartist", "aiart2024",
	"artificialcreativity", "machinelearningart", "neuralnetworks",
	"computervision", "deeplearning", "aiartist", "futureofart",
}

var stopwords = map[string]bool{
	"with": true, "that": true, "this": true, "very": true, "more": true, "some": true,
}

var videoBaseTags = []string{
	"aivideo", "generatedvideo", "artificialintelligence", "videoart", "digitalart", "aigenerated",
}

var videoStyleTags = map[string][]string{
	"cinematic": {"cinematic", "filmstyle", "moviemagic", "cinematicai"},
	"animation": {"animation", "animatedvideo", "cartoonstyle", "motiongraphics"},
	"abstract":  {"abstractart", "surrealvideo", "artisticvideo", "abstractanimation"},
	"nature":    {"naturevideo", "documentary", "naturalmotion", "organic"},
	"artistic":  {"artvideo", "creativevideo", "visualart", "artisticexpression"},
}

var videoKeywordPools = []pool{
	{"cat", []string{"cat", "pet", "animal", "feline"}},
	{"dog", []string{"dog", "pet", "animal", "canine"}},
	{"walk", []string{"walking", "movement", "motion"}},
	{"run", []string{"running", "fast", "action"}},
	{"fly", []string{"flying", "sky", "birds", "flight"}},
	{"swim", []string{"swimming", "water", "ocean"}},
	{"sunset", []string{"sunset", "goldenhour", "sky"}},
	{"ocean", []string{"ocean", "water", "waves", "sea"}},
	{"mountain", []string{"mountains", "landscape", "nature"}},
	{"city", []string{"city", "urban", "cityscape"}},
	{"space", []string{"space", "galaxy", "stars", "cosmos"}},
	{"forest", []string{"forest", "trees", "woods", "green"}},
	{"fire", []string{"fire", "flames", "heat"}},
	{"dance", []string{"dance", "movement", "motion"}},
	{"music", []string{"music", "sound", "audio"}},
	{"love", []string{"love", "romance", "heart"}},
	{"dream", []string{"dream", "surreal", "fantasy"}},
	{"future", []string{"future", "scifi", "technology"}},
	{"vintage", []string{"vintage", "retro", "classic"}},
	{"magic", []string{"magic", "fantasy", "mystical"}},
}

var videoTrendingTags = []string{"videooftheday", "aiart", "techart", "innovation", "creative"}
