package api

type slackPostRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackPostResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type slackOpenResponse struct {
	Ok      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

type slackUsersListResponse struct {
	Ok      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Members []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		IsBot   bool   `json:"is_bot"`
		Deleted bool   `json:"deleted"`
		Profile struct {
			RealName string `json:"real_name"`
		} `json:"profile"`
	} `json:"members"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

type urlVerification struct {
	Challenge string `json:"challenge"`
	Type      string `json:"type"`
}

type SlackEvent struct {
	Type   string         `json:"type"`
	TeamID string         `json:"team_id"`
	Event  SlackEventData `json:"event"`
}

type SlackEventData struct {
	Type        string `json:"type"`
	User        string `json:"user"`
	BotID       string `json:"bot_id"`
	Text        string `json:"text"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
}

type startRequest struct {
	TenantID  string `json:"tenant_id"`
	ChannelID string `json:"channel_id,omitempty"`
}

type resumeRequest struct {
	ThreadID string `json:"thread_id"`
}

type workflowResponse struct {
	Success  bool   `json:"success"`
	ThreadID string `json:"thread_id,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

type scheduleRequest struct {
	ChannelID   string `json:"channel_id"`
	StandupTime string `json:"standup_time"`
	Timezone    string `json:"timezone"`
}

type statusResponse struct {
	ThreadID  string   `json:"thread_id"`
	TenantID  string   `json:"tenant_id"`
	RoundID   string   `json:"round_id"`
	ChannelID string   `json:"channel_id"`
	Step      string   `json:"step"`
	Suspended bool     `json:"suspended"`
	Log       []string `json:"log"`
	Result    string   `json:"result,omitempty"`
}
