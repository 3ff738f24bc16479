package inmemdb

import (
	"sort"
	"sync"

	"github.com/trezcool/atlantis/core/announcement"
)

type announcementTable struct {
	mutex sync.RWMutex
	table map[string]announcement.Announcement
}

type announcementRepository struct {
	db *announcementTable
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) CreateAnnouncement(a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[a.ID] = a
	return a, nil
}

func (repo *announcementRepository) QueryAnnouncements() ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]announcement.Announcement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (repo *announcementRepository) GetAnnouncementByID(id string) (announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return a, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}
