package db

import (
	"encoding/json"
	"time"
)

// Candidate maps candidates.
type Candidate struct {
	CandidateID int64           `gorm:"column:candidate_id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Party       *string         `gorm:"column:party;type:text"`
	PhotoURL    *string         `gorm:"column:photo_url;type:text"`
	Biography   *string         `gorm:"column:biography;type:text"`
	Platform    json.RawMessage `gorm:"column:platform;type:jsonb"`
	Timeline    json.RawMessage `gorm:"column:timeline;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Candidate) TableName() string { return "candidates" }

// Vote maps votes. VoterHash deduplicates voters without storing raw
// addresses.
type Vote struct {
	VoteID      int64     `gorm:"column:vote_id;primaryKey;autoIncrement"`
	CandidateID int64     `gorm:"column:candidate_id;type:bigint;not null;index"`
	VoterHash   *string   `gorm:"column:voter_hash;type:text;index"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Vote) TableName() string { return "votes" }

// Question maps questions.
type Question struct {
	QuestionID int64     `gorm:"column:question_id;primaryKey;autoIncrement"`
	Text       string    `gorm:"column:text;type:text;not null"`
	Category   *string   `gorm:"column:category;type:text"`
	Ordering   int       `gorm:"column:ordering;type:integer;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Question) TableName() string { return "questions" }

// CandidateAnswer maps candidate_answers. A candidate holds at most one
// position per question.
type CandidateAnswer struct {
	AnswerID    int64     `gorm:"column:answer_id;primaryKey;autoIncrement"`
	QuestionID  int64     `gorm:"column:question_id;type:bigint;not null;uniqueIndex:idx_candidate_answers_question_candidate"`
	CandidateID int64     `gorm:"column:candidate_id;type:bigint;not null;uniqueIndex:idx_candidate_answers_question_candidate"`
	Position    int       `gorm:"column:position;type:integer;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (CandidateAnswer) TableName() string { return "candidate_answers" }

// NewsItem maps news_items. The unique URL index is the dedup source of
// truth; inserts go through ON CONFLICT DO NOTHING.
type NewsItem struct {
	NewsItemID  int64      `gorm:"column:news_item_id;primaryKey;autoIncrement"`
	Title       string     `gorm:"column:title;type:text;not null"`
	URL         string     `gorm:"column:url;type:text;not null;uniqueIndex:idx_news_items_url"`
	Summary     *string    `gorm:"column:summary;type:text"`
	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz"`
	SourceName  *string    `gorm:"column:source_name;type:text"`
	SourceSlug  *string    `gorm:"column:source_slug;type:text;index"`
	SourceLogo  *string    `gorm:"column:source_logo;type:text"`
	ImageURL    *string    `gorm:"column:image_url;type:text"`
	Language    *string    `gorm:"column:language;type:text"`
	Active      bool       `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (NewsItem) TableName() string { return "news_items" }

// NewsSource maps news_sources.
type NewsSource struct {
	SourceID  int64     `gorm:"column:source_id;primaryKey;autoIncrement"`
	Slug      string    `gorm:"column:slug;type:text;not null;uniqueIndex:idx_news_sources_slug"`
	Name      string    `gorm:"column:name;type:text;not null"`
	URL       string    `gorm:"column:url;type:text;not null"`
	Kind      string    `gorm:"column:kind;type:text;not null;default:feed"`
	Logo      *string   `gorm:"column:logo;type:text"`
	Active    bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (NewsSource) TableName() string { return "news_sources" }

// AdminUser maps admin_users.
type AdminUser struct {
	UserID       int64      `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string     `gorm:"column:username;type:text;not null;uniqueIndex:idx_admin_users_username"`
	PasswordHash string     `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at;type:timestamptz"`
}

func (AdminUser) TableName() string { return "admin_users" }

// AdminSession maps admin_sessions.
type AdminSession struct {
	SessionID  string    `gorm:"column:session_id;type:text;primaryKey"`
	UserID     int64     `gorm:"column:user_id;type:bigint;not null;index"`
	ExpiresAt  time.Time `gorm:"column:expires_at;type:timestamptz;not null"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;type:timestamptz;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (AdminSession) TableName() string { return "admin_sessions" }

// SiteConfig maps site_config; one row.
type SiteConfig struct {
	ConfigID        int64     `gorm:"column:config_id;primaryKey;autoIncrement"`
	ElectionYear    string    `gorm:"column:election_year;type:text;not null"`
	ElectionTitle   string    `gorm:"column:election_title;type:text;not null"`
	ElectionType    string    `gorm:"column:election_type;type:text;not null"`
	SiteName        string    `gorm:"column:site_name;type:text;not null"`
	MaintenanceMode bool      `gorm:"column:maintenance_mode;type:boolean;not null;default:false"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (SiteConfig) TableName() string { return "site_config" }

func autoMigrateModels() []any {
	return []any{
		&Candidate{},
		&Vote{},
		&Question{},
		&CandidateAnswer{},
		&NewsItem{},
		&NewsSource{},
		&AdminUser{},
		&AdminSession{},
		&SiteConfig{},
	}
}
