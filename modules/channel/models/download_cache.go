package models

// DownloadCache maps a remote link to the local file a previous resolution
// produced, so a repeated link skips the download.
type DownloadCache struct {
	ID        int64  `xorm:"pk autoincr 'id'"`
	Link      string `xorm:"varchar(500) not null unique 'link'"`
	LocalPath string `xorm:"varchar(500) not null 'local_path'"`
	FetchedAt int64  `xorm:"not null 'fetched_at'"`
}

// TableName returns the table name for DownloadCache
func (DownloadCache) TableName() string {
	return "download_cache"
}
