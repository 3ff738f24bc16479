package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/announcement"
)

const announcementColumns = `id, title, message, target, author_id, recipients, created_at`

type announcementRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	Target     string    `db:"target"`
	AuthorID   string    `db:"author_id"`
	Recipients int       `db:"recipients"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r announcementRow) announcement() announcement.Announcement {
	return announcement.Announcement{
		ID:         r.ID,
		Title:      r.Title,
		Message:    r.Message,
		Target:     r.Target,
		AuthorID:   r.AuthorID,
		Recipients: r.Recipients,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *sqlx.DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (repo *announcementRepository) CreateAnnouncement(a announcement.Announcement) (announcement.Announcement, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	row := announcementRow{
		ID:         a.ID,
		Title:      a.Title,
		Message:    a.Message,
		Target:     a.Target,
		AuthorID:   a.AuthorID,
		Recipients: a.Recipients,
		CreatedAt:  a.CreatedAt.UTC(),
	}
	q := `INSERT INTO announcements (` + announcementColumns + `) VALUES (:id, :title, :message, :target, :author_id, :recipients, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo *announcementRepository) selectAnnouncements(where string, args ...interface{}) ([]announcement.Announcement, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	q := `SELECT ` + announcementColumns + ` FROM announcements`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY created_at DESC, id DESC`

	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting announcements")
	}
	list := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.announcement())
	}
	return list, nil
}

func (repo *announcementRepository) QueryAnnouncements() ([]announcement.Announcement, error) {
	return repo.selectAnnouncements("")
}

func (repo *announcementRepository) GetAnnouncementByID(id string) (announcement.Announcement, error) {
	list, err := repo.selectAnnouncements(`id = ?`, id)
	if err != nil {
		return announcement.Announcement{}, err
	}
	if len(list) == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return list[0], nil
}
