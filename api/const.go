package api

const (
	slackUsersListURL         = "https://slack.com/api/users.list"
	slackConversationsOpenURL = "https://slack.com/api/conversations.open"
	slackPostMessageURL       = "https://slack.com/api/chat.postMessage"

	openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

	ackReceived  = "Got your update for today!"
	ackDuplicate = "Looks like you've already sent this update today."
)
