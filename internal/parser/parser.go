package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"regreddit/internal/models"
)

// ErrNotListing is returned when a response does not carry the Listing
// envelope. The caller treats it as a stream-level anomaly: the affected
// stream stops paginating, the run keeps going.
var ErrNotListing = errors.New("response is not a Listing object")

// Parser decodes Reddit API responses.
type Parser interface {
	ParseListing(data json.RawMessage) (models.Page, error)
}

type RedditParser struct{}

func NewRedditParser() *RedditParser {
	return &RedditParser{}
}

// ParseListing decodes one page of a user content listing. Children that are
// neither comments nor posts, or that carry no fullname, are dropped from
// Items but still counted in ChildCount.
func (p *RedditParser) ParseListing(data json.RawMessage) (models.Page, error) {
	var listing struct {
		Kind string `json:"kind"`
		Data struct {
			Children []struct {
				Kind string `json:"kind"`
				Data struct {
					Name      string `json:"name"`
					Subreddit string `json:"subreddit"`
					Title     string `json:"title"`
					LinkTitle string `json:"link_title"`
					Selftext  string `json:"selftext"`
					Body      string `json:"body"`
				} `json:"data"`
			} `json:"children"`
			After string `json:"after"`
		} `json:"data"`
	}

	if err := json.Unmarshal(data, &listing); err != nil {
		return models.Page{}, fmt.Errorf("parse listing JSON: %w", err)
	}

	if listing.Kind != "Listing" {
		return models.Page{}, fmt.Errorf("%w: got kind %q", ErrNotListing, listing.Kind)
	}

	page := models.Page{
		ChildCount: len(listing.Data.Children),
		After:      listing.Data.After,
	}

	for _, child := range listing.Data.Children {
		kind := models.ContentKind(child.Kind)
		if kind != models.KindPost && kind != models.KindComment {
			continue
		}
		if child.Data.Name == "" {
			continue
		}

		item := models.ListingItem{
			Fullname:  child.Data.Name,
			Subreddit: child.Data.Subreddit,
			Kind:      kind,
		}

		switch kind {
		case models.KindPost:
			item.Title = child.Data.Title
			item.Body = child.Data.Selftext
		case models.KindComment:
			item.Title = child.Data.LinkTitle
			item.Body = child.Data.Body
		}

		page.Items = append(page.Items, item)
	}

	return page, nil
}
