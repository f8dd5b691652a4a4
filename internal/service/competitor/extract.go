package competitor

import (
	"strings"
	"time"

	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/heuristic"
)

// candidate is a competitor observation extracted from one result item,
// before the admission threshold is applied.
type candidate struct {
	Name        string
	PlatformID  string
	URL         string
	Description string
	Audience    float64
	Metrics     map[string]float64
	Content     []competitor.ContentItem
}

// extractorFunc inspects one loosely-typed result item from a given
// platform and pulls out a competitor candidate. ok is false when the item
// does not identify anyone.
type extractorFunc func(item map[string]any) (candidate, bool)

// extractors maps a record source to its platform-specific extractor.
// Sources without an entry are ignored by the identification pass.
var extractors = map[string]extractorFunc{
	"twitter":   extractTwitter,
	"reddit":    extractReddit,
	"youtube":   extractYouTube,
	"instagram": extractInstagram,
	"pinterest": extractPinterest,
}

func extractTwitter(item map[string]any) (candidate, bool) {
	user, ok := item["user"].(map[string]any)
	if !ok {
		return candidate{}, false
	}

	name := heuristic.StringField(user, "name", "screen_name")
	if name == "" {
		return candidate{}, false
	}

	followers, _ := heuristic.NumberField(user, "followers_count", "followers")
	favorites, _ := heuristic.NumberField(item, "favorite_count", "likes")
	retweets, _ := heuristic.NumberField(item, "retweet_count", "retweets")

	c := candidate{
		Name:        name,
		PlatformID:  heuristic.StringField(user, "screen_name", "id_str"),
		URL:         heuristic.StringField(user, "url"),
		Description: heuristic.StringField(user, "description"),
		Audience:    followers,
		Metrics: map[string]float64{
			"followers":  followers,
			"engagement": favorites + retweets,
		},
	}

	if text := heuristic.StringField(item, "text", "full_text"); text != "" {
		c.Content = append(c.Content, competitor.ContentItem{
			ID:          heuristic.StringField(item, "id_str", "id"),
			Type:        "tweet",
			Title:       firstLine(text),
			URL:         heuristic.StringField(item, "url", "permalink"),
			Engagement:  favorites + retweets,
			PublishedAt: parseItemTime(item, "created_at"),
		})
		if c.Description == "" {
			c.Description = text
		}
	}
	return c, true
}

func extractReddit(item map[string]any) (candidate, bool) {
	author := heuristic.StringField(item, "author")
	if author == "" || author == "[deleted]" {
		return candidate{}, false
	}

	score, _ := heuristic.NumberField(item, "score", "ups")
	comments, _ := heuristic.NumberField(item, "num_comments")
	title := heuristic.StringField(item, "title")

	c := candidate{
		Name:        author,
		PlatformID:  author,
		URL:         "https://www.reddit.com/u/" + author,
		Description: title + " " + heuristic.StringField(item, "selftext"),
		Audience:    score,
		Metrics: map[string]float64{
			"karma":    score,
			"comments": comments,
		},
	}

	if title != "" {
		c.Content = append(c.Content, competitor.ContentItem{
			Type:        "post",
			Title:       title,
			Description: heuristic.StringField(item, "selftext"),
			URL:         heuristic.StringField(item, "permalink", "url"),
			Engagement:  score + comments,
		})
	}
	return c, true
}

func extractYouTube(item map[string]any) (candidate, bool) {
	channel := heuristic.StringField(item, "channel_title", "channelTitle", "channel")
	if channel == "" {
		return candidate{}, false
	}

	// The YouTube Data API nests channel stats under statistics.
	subscribers, ok := heuristic.NumberField(item, "subscribers", "subscriber_count")
	if !ok {
		subscribers, _ = nestedNumber(item, "statistics.subscriberCount")
	}
	views, ok := heuristic.NumberField(item, "views", "view_count")
	if !ok {
		views, _ = nestedNumber(item, "statistics.viewCount")
	}
	likes, _ := heuristic.NumberField(item, "likes", "like_count")

	c := candidate{
		Name:        channel,
		PlatformID:  heuristic.StringField(item, "channel_id", "channelId"),
		Description: heuristic.StringField(item, "channel_description", "description"),
		Audience:    subscribers,
		Metrics: map[string]float64{
			"subscribers": subscribers,
			"views":       views,
		},
	}

	if title := heuristic.StringField(item, "title"); title != "" {
		c.Content = append(c.Content, competitor.ContentItem{
			ID:          heuristic.StringField(item, "video_id", "videoId"),
			Type:        "video",
			Title:       title,
			Description: heuristic.StringField(item, "description"),
			URL:         heuristic.StringField(item, "url"),
			Engagement:  views + likes,
		})
	}
	return c, true
}

func extractInstagram(item map[string]any) (candidate, bool) {
	username := heuristic.StringField(item, "username")
	if username == "" {
		return candidate{}, false
	}

	followers, _ := heuristic.NumberField(item, "followers", "follower_count")
	likes, _ := heuristic.NumberField(item, "likes", "like_count")
	comments, _ := heuristic.NumberField(item, "comments", "comment_count")

	c := candidate{
		Name:        heuristic.StringField(item, "full_name"),
		PlatformID:  username,
		URL:         "https://www.instagram.com/" + username,
		Description: heuristic.StringField(item, "biography", "caption"),
		Audience:    followers,
		Metrics: map[string]float64{
			"followers":  followers,
			"engagement": likes + comments,
		},
	}
	if c.Name == "" {
		c.Name = username
	}

	if caption := heuristic.StringField(item, "caption"); caption != "" {
		c.Content = append(c.Content, competitor.ContentItem{
			ID:         heuristic.StringField(item, "shortcode", "id"),
			Type:       "post",
			Title:      firstLine(caption),
			Engagement: likes + comments,
		})
	}
	return c, true
}

func extractPinterest(item map[string]any) (candidate, bool) {
	owner := heuristic.StringField(item, "username", "board_owner")
	if owner == "" {
		return candidate{}, false
	}

	saves, _ := heuristic.NumberField(item, "saves", "save_count", "repin_count")

	c := candidate{
		Name:        owner,
		PlatformID:  owner,
		URL:         "https://www.pinterest.com/" + owner,
		Description: heuristic.StringField(item, "board", "about"),
		Audience:    saves,
		Metrics: map[string]float64{
			"saves": saves,
		},
	}

	if title := heuristic.StringField(item, "title"); title != "" {
		c.Content = append(c.Content, competitor.ContentItem{
			ID:          heuristic.StringField(item, "pin_id", "id"),
			Type:        "pin",
			Title:       title,
			Description: heuristic.StringField(item, "description"),
			URL:         heuristic.StringField(item, "link", "url"),
			Engagement:  saves,
		})
	}
	return c, true
}

// nestedNumber reads a numeric field through a dotted path of nested maps.
func nestedNumber(item map[string]any, path string) (float64, bool) {
	v, ok := heuristic.NestedField(item, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 120 {
		text = text[:120]
	}
	return strings.TrimSpace(text)
}

func parseItemTime(item map[string]any, field string) time.Time {
	s := heuristic.StringField(item, field)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.RubyDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
