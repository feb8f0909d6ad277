package repo

import "database/sql"

// Postgres implementa a escrita de resultados
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }
