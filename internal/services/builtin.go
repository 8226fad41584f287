package services

// Builtin surveys: the onboarding profile survey and the two fixed research
// topics. They are ordinary schema values compiled into the binary rather
// than rows in the survey table, and share the one-response-per-(survey,
// user) rule with everything else. Question ids double as the stable field
// names under which answers are stored.

const (
	BuiltinProfile = "profile"
	BuiltinBeer    = "beer"
	BuiltinSnacks  = "snacks"
)

// BuiltinSurveyIDs lists the compiled-in survey ids in display order.
func BuiltinSurveyIDs() []string {
	return []string{BuiltinProfile, BuiltinBeer, BuiltinSnacks}
}

func IsBuiltinSurvey(id string) bool {
	switch id {
	case BuiltinProfile, BuiltinBeer, BuiltinSnacks:
		return true
	}
	return false
}

// BuiltinSurvey returns a fresh copy of a compiled-in schema, or nil for an
// unknown id. Copies are fresh because callers sort and annotate questions.
func BuiltinSurvey(id string) *Survey {
	switch id {
	case BuiltinProfile:
		return profileSurvey()
	case BuiltinBeer:
		return beerSurvey()
	case BuiltinSnacks:
		return snacksSurvey()
	}
	return nil
}

func opts(pairs ...string) []QuestionOption {
	out := make([]QuestionOption, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, QuestionOption{Value: pairs[i], Label: pairs[i+1]})
	}
	return out
}

func profileSurvey() *Survey {
	return &Survey{
		ID:           BuiltinProfile,
		Title:        "Tell us about yourself",
		Introduction: "A few quick questions so we can tailor research surveys to you. You can update your answers at any time.",
		Status:       StatusPublished,
		Audience:     AudienceAll,
		CreatedBy:    "system",
		Questions: []*Question{
			{
				ID: "age", SurveyID: BuiltinProfile, OrderIndex: 1,
				Text: "How old are you?",
				Type: QuestionShortText,
			},
			{
				ID: "gender", SurveyID: BuiltinProfile, OrderIndex: 2,
				Text: "What is your gender?",
				Type: QuestionSingleChoice,
				Options: opts(
					"male", "Male",
					"female", "Female",
					"non-binary", "Non-binary",
					"prefer-not-to-say", "Prefer not to say",
				),
			},
			{
				ID: "city_size", SurveyID: BuiltinProfile, OrderIndex: 3,
				Text:     "What size city do you live in?",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"small-town", "Small town (under 50k people)",
					"medium-city", "Medium city (50k - 200k people)",
					"large-city", "Large city (200k - 1M people)",
					"major-metro", "Major metropolitan area (1M+ people)",
				),
			},
			{
				ID: "shopping_frequency", SurveyID: BuiltinProfile, OrderIndex: 4,
				Text:     "How often do you go grocery shopping?",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"daily", "Daily",
					"few-times-week", "A few times a week",
					"weekly", "Weekly",
					"bi-weekly", "Every 2 weeks",
					"monthly", "Monthly",
					"rarely", "Rarely",
				),
			},
			{
				ID: "preferred_brand", SurveyID: BuiltinProfile, OrderIndex: 5,
				Text: "Do you have a preferred snack or drink brand?",
				Type: QuestionShortText,
			},
			{
				ID: "profession", SurveyID: BuiltinProfile, OrderIndex: 6,
				Text:     "What is your profession?",
				Type:     QuestionShortText,
				Required: true,
			},
		},
	}
}

func beerSurvey() *Survey {
	return &Survey{
		ID:           BuiltinBeer,
		Title:        "World of Beer Survey",
		Introduction: "Help us understand how people relate to beer: what they drink, when, and why.",
		Status:       StatusPublished,
		Audience:     AudienceAll,
		CreatedBy:    "system",
		Questions: []*Question{
			{
				ID: "beer_preference", SurveyID: BuiltinBeer, OrderIndex: 1,
				Text:     "How do you feel about beer?",
				Subtitle: "Tell us your overall relationship with beer",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"love-it", "I love beer and drink it regularly",
					"like-it", "I like beer and drink occasionally",
					"neutral", "I'm neutral about beer",
					"rarely-drink", "I rarely drink beer",
					"dont-drink", "I don't drink beer",
				),
			},
			{
				ID: "drinking_frequency", SurveyID: BuiltinBeer, OrderIndex: 2,
				Text:     "How often do you drink beer?",
				Subtitle: "Select the frequency that best describes your beer consumption",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"daily", "Daily",
					"few-times-week", "A few times a week",
					"weekly", "Weekly",
					"monthly", "Monthly",
					"occasionally", "Occasionally (special events)",
					"rarely", "Rarely",
					"never", "Never",
				),
			},
			{
				ID: "favorite_beer_type", SurveyID: BuiltinBeer, OrderIndex: 3,
				Text:     "What's your favorite type of beer?",
				Subtitle: "Choose the beer style you enjoy most",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"lager", "Lager (light, crisp, refreshing)",
					"ale", "Ale (hoppy, bitter, complex)",
					"wheat", "Wheat beer (smooth, cloudy)",
					"stout-porter", "Stout/Porter (dark, rich, creamy)",
					"ipa", "IPA (hoppy, strong, aromatic)",
					"pilsner", "Pilsner (golden, clean, balanced)",
					"craft-variety", "I like trying different craft varieties",
					"no-preference", "No specific preference",
				),
			},
			{
				ID: "beer_occasions", SurveyID: BuiltinBeer, OrderIndex: 4,
				Text:     "When do you usually drink beer?",
				Subtitle: "Select the occasions when you most often enjoy beer",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"social-gatherings", "Social gatherings and parties",
					"after-work", "After work to unwind",
					"weekends", "Weekend relaxation",
					"meals", "With meals",
					"celebrations", "Special celebrations",
					"sports-events", "While watching sports",
					"casual-daily", "Casual daily consumption",
					"rarely-special", "Rarely, only on special occasions",
				),
			},
			{
				ID: "beer_importance_factors", SurveyID: BuiltinBeer, OrderIndex: 5,
				Text:     "What factors are important when choosing beer?",
				Subtitle: "Select all factors that influence your beer choice",
				Type:     QuestionMultiChoice,
				Required: true,
				Options: opts(
					"taste", "Taste and flavor",
					"price", "Price and value",
					"brand", "Brand reputation",
					"alcohol-content", "Alcohol content",
					"local-craft", "Local or craft brewery",
					"packaging", "Packaging and design",
					"recommendations", "Friend/expert recommendations",
					"health-conscious", "Health considerations (low calories, organic)",
					"availability", "Availability in stores/bars",
					"novelty", "Trying new and unique varieties",
				),
			},
		},
	}
}

func snacksSurvey() *Survey {
	return &Survey{
		ID:           BuiltinSnacks,
		Title:        "Top Snacks Survey",
		Introduction: "Help us map snacking habits: what people reach for, when, and which flavors win.",
		Status:       StatusPublished,
		Audience:     AudienceAll,
		CreatedBy:    "system",
		Questions: []*Question{
			{
				ID: "snack_frequency", SurveyID: BuiltinSnacks, OrderIndex: 1,
				Text:     "How often do you snack?",
				Subtitle: "Tell us about your snacking habits",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"multiple-daily", "Multiple times per day",
					"daily", "Once daily",
					"few-times-week", "A few times a week",
					"weekly", "Weekly",
					"occasionally", "Occasionally",
					"rarely", "Rarely",
					"never", "Never",
				),
			},
			{
				ID: "preferred_snack_types", SurveyID: BuiltinSnacks, OrderIndex: 2,
				Text:     "What types of snacks do you prefer?",
				Subtitle: "Select all snack categories you enjoy",
				Type:     QuestionMultiChoice,
				Required: true,
				Options: opts(
					"chips-crisps", "Chips and crisps",
					"chocolate-candy", "Chocolate and candy",
					"nuts-seeds", "Nuts and seeds",
					"fruits", "Fresh or dried fruits",
					"crackers-biscuits", "Crackers and biscuits",
					"popcorn", "Popcorn",
					"pretzels", "Pretzels",
					"energy-bars", "Energy/protein bars",
					"yogurt-dairy", "Yogurt and dairy snacks",
					"vegetables", "Fresh vegetables",
				),
			},
			{
				ID: "snack_occasions", SurveyID: BuiltinSnacks, OrderIndex: 3,
				Text:     "When do you usually snack?",
				Subtitle: "Select the most common time you reach for snacks",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"between-meals", "Between meals when hungry",
					"work-study", "While working or studying",
					"evening-tv", "Evening relaxation/watching TV",
					"social-gatherings", "Social gatherings and parties",
					"late-night", "Late night cravings",
					"exercise-recovery", "Before/after exercise",
					"stress-comfort", "When stressed or emotional",
					"boredom", "When bored",
				),
			},
			{
				ID: "health_consciousness", SurveyID: BuiltinSnacks, OrderIndex: 4,
				Text:     "How health-conscious are you about snacking?",
				Subtitle: "Select the option that best describes your approach to snack choices",
				Type:     QuestionSingleChoice,
				Required: true,
				Options: opts(
					"very-health-conscious", "Very health-conscious - I always check ingredients and nutrition",
					"somewhat-health-conscious", "Somewhat health-conscious - I try to balance healthy and tasty options",
					"neutral", "Neutral - Health is not a primary concern when choosing snacks",
					"taste-focused", "Taste-focused - I prioritize flavor over health benefits",
					"convenience-focused", "Convenience-focused - I choose what's easily available",
				),
			},
			{
				ID: "flavor_preferences", SurveyID: BuiltinSnacks, OrderIndex: 5,
				Text:     "What flavors do you gravitate towards?",
				Subtitle: "Select all flavor profiles you enjoy in snacks",
				Type:     QuestionMultiChoice,
				Required: true,
				Options: opts(
					"salty", "Salty and savory",
					"sweet", "Sweet and sugary",
					"spicy", "Spicy and hot",
					"sour", "Sour and tangy",
					"umami", "Umami and rich",
					"smoky", "Smoky and barbecue",
					"cheese", "Cheesy and creamy",
					"chocolate", "Chocolate and cocoa",
					"fruit", "Fruity and citrus",
					"herb-spice", "Herbal and spiced",
				),
			},
		},
	}
}
