package config

const (
	PathHealthCheck          = "/"
	PathSendCampaign         = "/send_campaign"
	PathGetCampaignStats     = "/get_campaign_stats"
	PathGetCampaignTrackings = "/get_campaign_trackings"
	PathMarkCampaignReplied  = "/mark_campaign_replied"
)

// Public engagement callbacks embedded into outbound content.
// They carry their own capability tokens instead of an API key.
const (
	PathTrackOpen   = "/track/open/{pixel_token}"
	PathTrackClick  = "/track/click/{tracking_id}/{link_id}"
	PathTrackBeacon = "/track/beacon/{pixel_token}"
)

const (
	DefaultPort   = 9090
	LogLevelDebug = "DEBUG"
)
