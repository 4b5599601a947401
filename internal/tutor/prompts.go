package tutor

import "github.com/aitutor/tutorchat/internal/chat"

const basePrompt = `You are a patient, encouraging AI tutor in a terminal chat app.
Keep answers short enough to read in a terminal: a few paragraphs at most.
Use Markdown for code and lists. Ask a follow-up question when the learner seems unsure.`

var tabPrompts = map[chat.Tab]string{
	chat.TabHome: "The learner is on the home tab. Answer general questions and help them decide what to study next.",
	chat.TabProgress: "The learner is on the progress tab. Help them reflect on what they have covered, " +
		"what they found hard, and what to practise next.",
	chat.TabReview: "The learner is on the review tab. Quiz them on material they have seen, one question at a time, " +
		"and give brief feedback on each answer.",
	chat.TabExplore: "The learner is on the explore tab. Suggest new topics and outline a short learning path " +
		"for anything they are curious about.",
}

func systemPrompt(tab chat.Tab) string {
	return basePrompt + "\n\n" + tabPrompts[tab]
}

// offlineReplies are used when no model is configured.
var offlineReplies = map[chat.Tab]string{
	chat.TabHome: "I'm running without a language model, so I can't answer that in depth. " +
		"Say \"I want to learn <topic>\" to start an assessment, or press F1 for help.",
	chat.TabProgress: "I can't analyse your progress without a language model, but F2 shows a summary of this session.",
	chat.TabReview:   "I can't quiz you without a language model. Press F3 for flashcards built from your questions.",
	chat.TabExplore: "I can't suggest a custom path without a language model. Press F4 for popular topics, " +
		"or say \"teach me <topic>\" for an assessment.",
}
