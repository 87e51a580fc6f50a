package enrich

import (
	"fmt"
	"net/url"
)

// ServiceLink returns a provider-specific watch URL for the movie. Providers
// without a searchable deep link get their storefront; unknown providers fall
// back to the movie's JustWatch page, then to a dead link.
func ServiceLink(providerName, movieTitle, justWatchLink string) string {
	encoded := url.QueryEscape(movieTitle)
	switch providerName {
	case "Amazon Prime Video":
		return fmt.Sprintf("https://www.amazon.co.jp/s?k=%s&i=instant-video", encoded)
	case "Netflix":
		return "https://www.netflix.com/jp/"
	case "U-NEXT":
		return "https://video.unext.jp/"
	case "Hulu":
		return "https://www.hulu.jp/"
	case "Disney Plus":
		return "https://www.disneyplus.com/ja-jp"
	case "Apple TV":
		return fmt.Sprintf("https://tv.apple.com/jp/search/%s", encoded)
	case "Google Play Movies":
		return fmt.Sprintf("https://play.google.com/store/search?q=%s&c=movies", encoded)
	case "YouTube":
		return fmt.Sprintf("https://www.youtube.com/results?search_query=%s+full+movie", encoded)
	default:
		if justWatchLink != "" {
			return justWatchLink
		}
		return "#"
	}
}
