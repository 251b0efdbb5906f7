package storage

const schema = `
-- Flashcards hold the card content plus its Leitner state. due_at is epoch
-- milliseconds; NULL means never reviewed (immediately due). fingerprint and
-- source_id are set only for cards imported from a deck source.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subject TEXT NOT NULL DEFAULT '',
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    box INTEGER NOT NULL DEFAULT 1,
    due_at INTEGER,
    fingerprint TEXT,
    source_id INTEGER,
    created_at INTEGER NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_flashcards_due ON flashcards(due_at);
CREATE INDEX IF NOT EXISTS idx_flashcards_subject ON flashcards(subject);

-- One row per recorded review outcome.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    reviewed_at INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    box INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES flashcards(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subject TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

-- Deck sources: local directories or git repositories of markdown decks.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    last_scanned INTEGER
);
`
