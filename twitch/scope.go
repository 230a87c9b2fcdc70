package twitch

// OAuth2 scopes.
const (
	ScopeAnalyticsExtensions      = "analytics:read:extensions"
	ScopeAnalyticsGames           = "analytics:read:games"
	ScopeBits                     = "bits:read"
	ScopeChannelCommercial        = "channel:edit:commercial"
	ScopeChannelBroadcast         = "channel:manage:broadcast"
	ScopeChannelExtensions        = "channel:manage:extensions"
	ScopeChannelManageRedemptions = "channel:manage:redemptions"
	ScopeChannelVideos            = "channel:manage:videos"
	ScopeChannelEditors           = "channel:read:editors"
	ScopeChannelHypeTrain         = "channel:read:hype_train"
	ScopeChannelReadRedemptions   = "channel:read:redemptions"
	ScopeChannelStreamKey         = "channel:read:stream_key"
	ScopeChannelSubscriptions     = "channel:read:subscriptions"
	ScopeClips                    = "clips:edit"
	ScopeModeration               = "moderation:read"
	ScopeUser                     = "user:edit"
	ScopeUserFollows              = "user:edit:follows"
	ScopeUserReadBlocks           = "user:read:blocked_users"
	ScopeUserManageBlocks         = "user:manage:blocked_users"
	ScopeUserBroadcast            = "user:read:broadcast"
	ScopeUserEmail                = "user:read:email"
)
