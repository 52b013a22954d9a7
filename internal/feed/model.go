/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package feed defines the canonical video record published to clients and
// the defensive decoding of the loosely typed upstream playlist items.
package feed

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexNumber decodes a JSON number that upstream sometimes delivers as a
// string. Unparseable values decode to zero instead of failing the record.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexNumber(v)
	return nil
}

// RawRatings is the upstream rating aggregate.
type RawRatings struct {
	Score        FlexNumber `json:"score"`
	RatingsCount FlexNumber `json:"ratingsCount"`
	RatingUp     FlexNumber `json:"ratingUp"`
}

// RawAuthor is the nested author object some upstream revisions attach.
type RawAuthor struct {
	Name       string      `json:"name"`
	Nickname   string      `json:"nickname"`
	Nick       string      `json:"nick"`
	Address    string      `json:"address"`
	Avatar     string      `json:"avatar"`
	Reputation *FlexNumber `json:"reputation"`
	Rep        *FlexNumber `json:"rep"`
}

// RawPeerTube carries the video host metadata embedded in an item.
type RawPeerTube struct {
	DurationSeconds FlexNumber `json:"durationSeconds"`
	Host            string     `json:"host"`
	UUID            string     `json:"uuid"`
}

// RawItem is one playlist index entry. Every field is optional and read
// defensively; the record only exists for the duration of one fetch cycle.
type RawItem struct {
	VideoHash        string          `json:"video_hash"`
	VideoURL         string          `json:"video_url"`
	AuthorAddress    string          `json:"author_address"`
	AuthorName       string          `json:"author_name"`
	AuthorAvatar     string          `json:"author_avatar"`
	AuthorReputation *FlexNumber     `json:"author_reputation"`
	Author           *RawAuthor      `json:"author"`
	Caption          string          `json:"caption"`
	Description      string          `json:"description"`
	Hashtags         string          `json:"hashtags"`
	Timestamp        int64           `json:"timestamp"`
	Ratings          *RawRatings     `json:"ratings"`
	CommentsCount    *FlexNumber     `json:"comments_count"`
	CommentsCountAlt *FlexNumber     `json:"commentsCount"`
	Comments         json.RawMessage `json:"comments"`
	Language         string          `json:"language"`
	PeerTube         *RawPeerTube    `json:"peertube"`
	BastyonPostLink  string          `json:"bastyon_post_link"`
}

// Comment is one normalized comment attached to a published video.
type Comment struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Video is the canonical record published in per-language snapshots. ID,
// Hash and TxID always carry the same upstream content hash. Every field has
// a defined default so the client never sees an absent required key.
type Video struct {
	ID                 string    `json:"id"`
	Hash               string    `json:"hash"`
	TxID               string    `json:"txid"`
	URL                string    `json:"url"`
	Resolutions        []string  `json:"resolutions"`
	Uploader           string    `json:"uploader"`
	UploaderAddress    string    `json:"uploaderAddress"`
	UploaderAvatar     string    `json:"uploaderAvatar,omitempty"`
	UploaderReputation *float64  `json:"uploaderReputation,omitempty"`
	Description        string    `json:"description"`
	Duration           float64   `json:"duration"`
	Timestamp          string    `json:"timestamp"`
	FormattedDate      string    `json:"formattedDate"`
	Likes              float64   `json:"likes"`
	Comments           int       `json:"comments"`
	RatingsCount       int       `json:"ratingsCount"`
	AverageRating      float64   `json:"averageRating"`
	UserRating         float64   `json:"userRating"`
	CommentData        []Comment `json:"commentData"`
	Type               string    `json:"type"`
	Tags               []string  `json:"tags"`
	Language           string    `json:"language"`
	HasVideo           bool      `json:"hasVideo"`
	BastyonPostLink    string    `json:"bastyonPostLink,omitempty"`
	Views              *int64    `json:"views,omitempty"`
}
