package domain

import "fmt"

// SocialPost is the caption metadata produced for a short kit.
type SocialPost struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// LongFormPost is the full video metadata produced for a long kit.
type LongFormPost struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	Timestamps  string   `json:"timestamps"`
	Tags        []string `json:"tags"`
}

// ContentKit is the transient working product of one pipeline run. Exactly one
// of SocialPost or LongPost is set, depending on the job kind. A kit is folded
// into a HistoryItem on success and discarded on failure.
type ContentKit struct {
	Theme      string
	Subthemes  []string
	Script     string
	SocialPost *SocialPost
	LongPost   *LongFormPost
}

// PostTitle returns the title of whichever post variant the kit carries.
func (k *ContentKit) PostTitle() string {
	if k.LongPost != nil {
		return k.LongPost.Title
	}
	if k.SocialPost != nil {
		return k.SocialPost.Title
	}
	return ""
}

// PostDescription returns the description of whichever post variant the kit carries.
func (k *ContentKit) PostDescription() string {
	if k.LongPost != nil {
		return k.LongPost.Description
	}
	if k.SocialPost != nil {
		return k.SocialPost.Description
	}
	return ""
}

// HistoryItem is the durable record of one completed pipeline run. Immutable
// once created except for IsDownloaded and VideoBlobKey, which are set later
// through the control surface.
type HistoryItem struct {
	ID           string        `json:"id"`
	Timestamp    int64         `json:"timestamp"`
	Kind         JobKind       `json:"kind"`
	Language     Language      `json:"language"`
	Theme        string        `json:"theme"`
	Subthemes    []string      `json:"subthemes"`
	Script       string        `json:"script"`
	SocialPost   *SocialPost   `json:"socialPost"`
	LongPost     *LongFormPost `json:"longPost"`
	AudioBlobKey string        `json:"audioBlobKey"`
	ImageBlobKey string        `json:"imageBlobKey"`
	VideoBlobKey string        `json:"videoBlobKey,omitempty"`
	IsDownloaded bool          `json:"isDownloaded"`
}

// HistoryID derives the unique identifier for a run that settled at the given
// epoch-millisecond timestamp.
func HistoryID(timestampMillis int64, lang Language, kind JobKind) string {
	return fmt.Sprintf("%d-%s-%s", timestampMillis, lang, kind)
}

// Blob key prefixes under which kit media is stored.
const (
	AudioBlobPrefix = "history_audio_"
	ImageBlobPrefix = "history_image_"
	VideoBlobPrefix = "history_video_"
)
