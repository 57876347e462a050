package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite database used for the question bank and the stamp
// catalog. Question and character authoring happens elsewhere; the engine
// only reads.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path and bootstraps the
// schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS user_questions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            stem TEXT NOT NULL,
            choice1 TEXT NOT NULL,
            choice2 TEXT NOT NULL,
            choice3 TEXT NOT NULL,
            choice4 TEXT NOT NULL,
            correct_idx INTEGER NOT NULL,
            hint TEXT DEFAULT '',
            time_limit_sec INTEGER DEFAULT 0
        );
        CREATE TABLE IF NOT EXISTS characters (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            code TEXT UNIQUE,
            name TEXT,
            sprite_key TEXT
        );
        CREATE TABLE IF NOT EXISTS user_characters (
            user_id INTEGER NOT NULL,
            character_id INTEGER NOT NULL,
            PRIMARY KEY (user_id, character_id)
        );
    `)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// QuestionRow is one stored multiple-choice question.
type QuestionRow struct {
	ID           int64
	Stem         string
	Choices      [4]string
	CorrectIdx   int
	Hint         string
	TimeLimitSec int
}

// RandomQuestion returns a random stored question, or sql.ErrNoRows when the
// bank is empty.
func (db *DB) RandomQuestion() (*QuestionRow, error) {
	var q QuestionRow
	err := db.QueryRow(`
        SELECT id, stem, choice1, choice2, choice3, choice4, correct_idx, hint, time_limit_sec
        FROM user_questions ORDER BY RANDOM() LIMIT 1
    `).Scan(&q.ID, &q.Stem, &q.Choices[0], &q.Choices[1], &q.Choices[2], &q.Choices[3],
		&q.CorrectIdx, &q.Hint, &q.TimeLimitSec)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionCount returns the number of stored questions.
func (db *DB) QuestionCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM user_questions`).Scan(&n)
	return n, err
}

// OwnedStampKeys returns the sprite keys of every character the user owns.
func (db *DB) OwnedStampKeys(userID int64) ([]string, error) {
	rows, err := db.Query(`
        SELECT c.sprite_key FROM characters c
        JOIN user_characters uc ON uc.character_id = c.id
        WHERE uc.user_id = ?
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}
