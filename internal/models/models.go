package models

// ContentKind identifies one of the two listing streams a Reddit account
// exposes. The values match the "kind" discriminator in listing children.
type ContentKind string

const (
	// KindPost is a submitted link or self post (t3 fullname prefix).
	KindPost ContentKind = "t3"
	// KindComment is a comment (t1 fullname prefix).
	KindComment ContentKind = "t1"
)

// String returns a human readable stream name for logs.
func (k ContentKind) String() string {
	switch k {
	case KindPost:
		return "posts"
	case KindComment:
		return "comments"
	default:
		return string(k)
	}
}

// ListingItem is one deletable piece of content from a user listing.
type ListingItem struct {
	// Fullname is the globally unique id ("t3_abc12" / "t1_xyz89") used both
	// as the delete handle and as the pagination cursor.
	Fullname string
	// Subreddit the item was posted in. Exemption checks key on this.
	Subreddit string
	// Kind of the item.
	Kind ContentKind
	// Title of the post, or title of the post a comment belongs to.
	Title string
	// Body text. Empty for link posts.
	Body string
}

// Page is one fetched slice of a user listing.
type Page struct {
	// Items holds the children that decoded into a known content kind.
	Items []ListingItem
	// ChildCount is the raw number of children the server returned,
	// including ones that did not decode. The short-page termination rule
	// compares this count, not len(Items), against the requested limit.
	ChildCount int
	// After is the cursor the server suggested for the next page. Kept for
	// diagnostics; pagination derives its own cursor from the last item.
	After string
}

// SubmissionKind selects the Reddit submit endpoint behavior.
type SubmissionKind string

const (
	SubmissionLink SubmissionKind = "link"
	SubmissionSelf SubmissionKind = "self"
)

// Submission is a new post to be created on behalf of the user.
type Submission struct {
	Subreddit string
	Title     string
	Kind      SubmissionKind
	// URL is set for link submissions.
	URL string
	// Text is the markdown body of a self post.
	Text string
	// RichtextJSON is the richtext document of a self post. At most one of
	// Text and RichtextJSON is set.
	RichtextJSON string
}
