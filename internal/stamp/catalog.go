package stamp

import (
	"log/slog"

	"quizrally/internal/store"
)

// HeadStartKeys are usable by everyone, including guests, before any
// character has been collected.
var HeadStartKeys = []string{
	"marmot.png",
	"tanuki.png",
	"kitsune.png",
}

// Catalog answers whether a player may send a given stamp key.
type Catalog interface {
	AllowedKeys(userID int64) map[string]bool
}

// DBCatalog resolves owned stamps from the character collection tables.
type DBCatalog struct {
	db     *store.DB // may be nil; head-start keys only then
	logger *slog.Logger
}

// NewDBCatalog creates a catalog backed by the sqlite store.
func NewDBCatalog(db *store.DB, logger *slog.Logger) *DBCatalog {
	return &DBCatalog{db: db, logger: logger}
}

// AllowedKeys returns the stamp keys the user may send: the head-start set
// plus every owned character sprite. Guests and bots (id <= 0) get the
// head-start set only.
func (c *DBCatalog) AllowedKeys(userID int64) map[string]bool {
	allowed := make(map[string]bool, len(HeadStartKeys))
	for _, key := range HeadStartKeys {
		allowed[key] = true
	}

	if userID <= 0 || c.db == nil {
		return allowed
	}

	keys, err := c.db.OwnedStampKeys(userID)
	if err != nil {
		c.logger.Warn("stamp catalog lookup failed", "userID", userID, "error", err)
		return allowed
	}
	for _, key := range keys {
		allowed[key] = true
	}
	return allowed
}
