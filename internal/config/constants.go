package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookmarks.db"

	// DefaultUserAgent is sent by the page fetcher when none is configured
	DefaultUserAgent = "BookmarksFetcher/1.0 (+https://github.com/mrlokans/bookmarks)"
)
