package types

import "time"

// Recent is one persisted research query. Rows are created when a research
// call is answered (successfully or degraded), never mutated, and deleted
// only by explicit removal scoped to the owning user.
type Recent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Company   string    `json:"company"`
	Tab       string    `json:"tab"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// FavouriteCompany is a per-user favourites entry. The identity key is
// (user, company_name); CompanyID is caller-supplied advisory metadata.
// Un-favouriting clears IsFavourite rather than deleting the row.
type FavouriteCompany struct {
	UserID      string    `json:"-"`
	CompanyID   *int64    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	IsFavourite bool      `json:"is_favourite"`
	CreatedAt   time.Time `json:"created_at"`
}

// Article is a single news item returned by the news provider.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// --- API request payloads ---

// CredentialsRequest is the body for POST /api/signup and POST /api/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResearchRequest is the body for POST /api/research.
type ResearchRequest struct {
	Company  string `json:"company"`
	Tab      string `json:"tab"`
	Question string `json:"question"`
}

// FavouriteRequest is the body for POST /api/favourites.
// IsFavourite defaults to true when absent.
type FavouriteRequest struct {
	CompanyID   *int64 `json:"company_id"`
	CompanyName string `json:"company_name"`
	IsFavourite *bool  `json:"isFavourite"`
}

// RemoveRecentRequest is the body for POST /api/remove_recent.
type RemoveRecentRequest struct {
	ID *int64 `json:"id"`
}

// NewsFeedRequest is the body for POST /api/news_feed.
type NewsFeedRequest struct {
	Categories []string `json:"categories"`
}

// CompanyNewsRequest is the body for POST /api/news_for_company.
type CompanyNewsRequest struct {
	CompanyName string `json:"company_name"`
}

// --- API response payloads ---

// SignupResponse is the 200 payload for POST /api/signup.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// LoginResponse is the 200 payload for POST /api/login.
type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// RecentsResponse is the 200 payload for GET /api/recents.
type RecentsResponse struct {
	Recents []Recent `json:"recents"`
}

// FavouritesResponse is the 200 payload for GET /api/favourites.
type FavouritesResponse struct {
	Favourites []FavouriteCompany `json:"favourites"`
}

// ResearchResponse is the 200 payload for POST /api/research.
type ResearchResponse struct {
	Answer string `json:"answer"`
}

// StatusResponse is the generic {status: ...} acknowledgement payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// NewsFeedResponse is the 200 payload for POST /api/news_feed.
type NewsFeedResponse struct {
	Categories map[string][]Article `json:"categories"`
}

// CompanyNewsResponse is the 200 payload for POST /api/news_for_company.
type CompanyNewsResponse struct {
	Company  string    `json:"company"`
	Articles []Article `json:"articles"`
}
