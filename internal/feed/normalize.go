/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownUploader is the display name used when no author information
// survives normalization. The profile enricher treats it as replaceable.
const UnknownUploader = "Unknown"

// unknownDate mirrors the placeholder the client shows for undated posts.
const unknownDate = "Unknown date"

// Normalize maps one raw upstream item into the canonical video record.
// It is pure and never fails: any unparseable optional sub-field degrades
// to that field's default instead of aborting the record. The now argument
// only backs the timestamp fallback for items without one.
func Normalize(item RawItem, now time.Time) Video {
	var duration float64
	if item.PeerTube != nil {
		duration = float64(item.PeerTube.DurationSeconds)
	}

	timestamp := now.UTC().Format(time.RFC3339)
	formattedDate := unknownDate
	if item.Timestamp > 0 {
		t := time.Unix(item.Timestamp, 0).UTC()
		timestamp = t.Format(time.RFC3339)
		formattedDate = t.Format("1/2/2006")
	}

	var score, ratingsCount, ratingUp float64
	if item.Ratings != nil {
		score = float64(item.Ratings.Score)
		ratingsCount = float64(item.Ratings.RatingsCount)
		ratingUp = float64(item.Ratings.RatingUp)
	}

	likes := score
	if likes == 0 {
		likes = ratingUp
	}

	avg := AverageRating(score, ratingsCount)

	description := item.Caption
	if description == "" {
		description = item.Description
	}

	var reputation *float64
	if item.AuthorReputation != nil {
		reputation = floatPtr(float64(*item.AuthorReputation))
	} else if item.Author != nil {
		if item.Author.Reputation != nil {
			reputation = floatPtr(float64(*item.Author.Reputation))
		} else if item.Author.Rep != nil {
			reputation = floatPtr(float64(*item.Author.Rep))
		}
	}

	avatar := item.AuthorAvatar
	if avatar == "" && item.Author != nil {
		avatar = item.Author.Avatar
	}
	avatar = NormalizeAvatarURL(avatar)

	return Video{
		ID:                 item.VideoHash,
		Hash:               item.VideoHash,
		TxID:               item.VideoHash,
		URL:                item.VideoURL,
		Resolutions:        []string{},
		Uploader:           displayName(item),
		UploaderAddress:    item.AuthorAddress,
		UploaderAvatar:     avatar,
		UploaderReputation: reputation,
		Description:        description,
		Duration:           duration,
		Timestamp:          timestamp,
		FormattedDate:      formattedDate,
		Likes:              likes,
		Comments:           commentCount(item),
		RatingsCount:       int(ratingsCount),
		AverageRating:      avg,
		UserRating:         avg,
		CommentData:        []Comment{},
		Type:               "video",
		Tags:               ParseHashtags(item.Hashtags),
		Language:           item.Language,
		HasVideo:           item.VideoURL != "",
		BastyonPostLink:    item.BastyonPostLink,
	}
}

// AverageRating derives the published average from the upstream aggregate.
// A zero ratings count yields 1 (neutral minimum, keeps UI rating widgets
// stable); the result is always clamped to [1, 5].
func AverageRating(score, ratingsCount float64) float64 {
	avg := 1.0
	if ratingsCount > 0 {
		avg = score / ratingsCount
	}
	if avg < 1 {
		avg = 1
	}
	if avg > 5 {
		avg = 5
	}
	return avg
}

// ParseHashtags accepts either a JSON array string or a space-separated
// string of "#tag" tokens. Anything unparseable yields an empty list.
func ParseHashtags(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}
	if strings.HasPrefix(s, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(s), &tags); err != nil {
			return []string{}
		}
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(f, "#")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeAvatarURL resolves relative avatar paths against the known host
// origin. Absolute URLs and data URIs pass through unchanged.
func NormalizeAvatarURL(url string) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "data:"):
		return url
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return url
	case strings.HasPrefix(url, "/"):
		return "https://bastyon.com" + url
	default:
		return url
	}
}

// displayName resolves the uploader name: explicit top-level author name,
// then the nested author object, then the address, then "Unknown".
func displayName(item RawItem) string {
	if item.AuthorName != "" {
		return item.AuthorName
	}
	if a := item.Author; a != nil {
		if a.Name != "" {
			return a.Name
		}
		if a.Nickname != "" {
			return a.Nickname
		}
		if a.Nick != "" {
			return a.Nick
		}
	}
	if item.AuthorAddress != "" {
		return item.AuthorAddress
	}
	return UnknownUploader
}

// commentCount prefers comments_count, then commentsCount, then a bare
// numeric comments field.
func commentCount(item RawItem) int {
	if item.CommentsCount != nil {
		return int(*item.CommentsCount)
	}
	if item.CommentsCountAlt != nil {
		return int(*item.CommentsCountAlt)
	}
	if len(item.Comments) > 0 {
		var n float64
		if err := json.Unmarshal(item.Comments, &n); err == nil {
			return int(n)
		}
	}
	return 0
}

func floatPtr(v float64) *float64 { return &v }
