package quiz

// Extraction says where a category's answer comes from in a request.
type Extraction int

const (
	// FromSlot reads a resolved entity value.
	FromSlot Extraction = iota
	// FromArgument reads a raw numeric argument.
	FromArgument
)

// ScoringRule selects how an answer turns into points.
type ScoringRule int

const (
	// ScoreTable looks the answer up in the partner's table.
	ScoreTable ScoringRule = iota
	// ScoreTableOrNeutral falls back to NeutralScore for unknown answers.
	ScoreTableOrNeutral
	// ScoreCloseness scores by distance from the partner's ideal number.
	ScoreCloseness
)

// Category describes one question category.
type Category struct {
	// Operation is the dispatcher operation that submits this category.
	Operation string
	// Key is the question name and the content table key.
	Key string
	// Slot is the slot or argument name carrying the answer.
	Slot    string
	Extract Extraction
	Scoring ScoringRule
}

var categories = []Category{
	{Operation: "fridayNightQuestion", Key: "fridayNight", Slot: "fri_night"},
	{Operation: "firstDateQuestion", Key: "firstDate", Slot: "first_date"},
	{Operation: "superpowerQuestion", Key: "superpower", Slot: "superpower"},
	{Operation: "faveColorQuestion", Key: "favoriteColor", Slot: "fave_color", Scoring: ScoreTableOrNeutral},
	{Operation: "numChildrenQuestion", Key: "numChildren", Slot: "num_children", Extract: FromArgument, Scoring: ScoreCloseness},
	{Operation: "spiritAnimalQuestion", Key: "spiritAnimal", Slot: "spirit_animal"},
	{Operation: "movieGenreQuestion", Key: "movieGenre", Slot: "movie_genre"},
	{Operation: "faveSeasonQuestion", Key: "favoriteSeason", Slot: "fave_season"},
	{Operation: "tattooLocationQuestion", Key: "tattooLocation", Slot: "tattoo_location"},
	{Operation: "openBusinessQuestion", Key: "openBusiness", Slot: "open_business"},
	{Operation: "ducksHorsesQuestion", Key: "ducksOrHorses", Slot: "ducks_horses"},
	{Operation: "dogsCatsQuestion", Key: "dogsOrCats", Slot: "dogs_cats"},
	{Operation: "coffeeTeaQuestion", Key: "coffeeOrTea", Slot: "coffee_tea"},
}

var (
	byOperation = make(map[string]Category, len(categories))
	byKey       = make(map[string]Category, len(categories))
)

func init() {
	for _, c := range categories {
		byOperation[c.Operation] = c
		byKey[c.Key] = c
	}
}

// Categories returns every known category in registry order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategoryForOperation looks a category up by dispatcher operation name.
func CategoryForOperation(op string) (Category, bool) {
	c, ok := byOperation[op]
	return c, ok
}

// CategoryForKey looks a category up by question name.
func CategoryForKey(key string) (Category, bool) {
	c, ok := byKey[key]
	return c, ok
}
