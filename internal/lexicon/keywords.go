package lexicon

// Keyword tables used by the extraction rules. All phrases are lowercase and
// matched on word boundaries against the lowercased utterance.
var (
	EmotionWords = []string{
		"happy", "excited", "sad", "tired", "stressed", "anxious",
		"worried", "calm", "angry", "frustrated", "proud", "grateful",
	}
	Emotions = patterns(EmotionWords...)

	PreferenceVerbs = phrases(
		"love", "loves",
		"like", "likes",
		"enjoy", "enjoys",
		"prefer", "prefers",
		"favorite", "favorite",
	)

	// Requests are directed at the NPC. They are checked before obligations.
	Requests = phrases(
		"i want you to", "wants you to",
		"i'd like you to", "wants you to",
		"i would like you to", "wants you to",
		"i need you to", "wants you to",
		"could you", "asked you to",
		"can you", "asked you to",
		"would you", "asked you to",
		"please", "asked you to",
	)

	// RequestHints mark a preference verb that is really part of a request.
	RequestHints = patterns(
		"like you to", "love you to", "like it if you", "love it if you",
		"love for you to", "like for you to",
	)

	Obligations = phrases(
		"need to", "needs to",
		"have to", "has to",
		"must", "must",
		"gotta", "has to",
		"should", "should",
	)

	Goals = phrases(
		"want to", "wants to",
		"plan to", "plans to",
		"hope to", "hopes to",
		"trying to", "is trying to",
		"aim to", "aims to",
	)

	Relationships = patterns(
		"friend", "friends", "partner", "roommate", "neighbor",
		"mom", "dad", "sister", "brother", "coworker",
	)

	Schedules = patterns(
		"tomorrow", "today", "tonight", "next week", "this weekend", "this week",
		"on monday", "on tuesday", "on wednesday", "on thursday", "on friday",
		"on saturday", "on sunday",
	)

	ItemVerbs = phrases(
		"bought", "bought",
		"picked up", "picked up",
		"got", "got",
		"need", "needs",
		"looking for", "is looking for",
		"found", "found",
	)

	EventVerbs = phrases(
		"went", "went",
		"visited", "visited",
		"met", "met",
		"finished", "finished",
		"completed", "completed",
		"started", "started",
		"helped", "helped",
		"built", "built",
	)

	// Completions mark an event as closing out open work.
	Completions = []string{"finished", "completed", "wrapped up", "done"}

	// Salience boosters.
	Emphasis     = []string{"important", "big"}
	Intensifiers = []string{"very", "really"}
)

// AnyIn reports whether any pattern occurs in text.
func AnyIn(ps []Pattern, text string) bool {
	for _, p := range ps {
		if p.In(text) {
			return true
		}
	}
	return false
}
