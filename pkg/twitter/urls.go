// Copyright 2024-2026 Aiku AI

package twitter

// UserURL returns the public profile URL for a screen name.
func UserURL(screenName string) string {
	return "https://twitter.com/" + screenName
}

// StatusURL returns the permalink for a tweet.
func StatusURL(screenName, id string) string {
	return "https://twitter.com/" + screenName + "/status/" + id
}

// HashtagURL returns the hashtag search page URL for a tag (without '#').
func HashtagURL(tag string) string {
	return "https://twitter.com/hashtag/" + tag + "?src=hash"
}
