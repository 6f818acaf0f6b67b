package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Investigation{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveInvestigation inserts the investigation, replacing any row with the same id.
func (d *Database) SaveInvestigation(inv *Investigation) error {
	if inv == nil {
		return errors.New("investigation is nil")
	}
	if strings.TrimSpace(inv.ID) == "" {
		return errors.New("investigation id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(inv).Error
}

// GetInvestigation loads one investigation by id. Missing rows return gorm.ErrRecordNotFound.
func (d *Database) GetInvestigation(id string) (*Investigation, error) {
	var inv Investigation
	if err := d.gorm.Where("id = ?", strings.TrimSpace(id)).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountInvestigations returns the number of stored investigations.
func (d *Database) CountInvestigations() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Investigation{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// InvestigationQuery filters and pages history listings.
type InvestigationQuery struct {
	Query    string
	MaxScore *int
	Verdict  string
	Sort     string
	Offset   int
	Limit    int
}

// ListInvestigations returns paginated investigation records applying optional filters.
func (d *Database) ListInvestigations(opts InvestigationQuery) ([]Investigation, int64, error) {
	var total int64
	base := d.gorm.Model(&Investigation{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		base = base.Where(`LOWER(query) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\'`, like, like)
	}
	if opts.MaxScore != nil {
		base = base.Where("score <= ?", *opts.MaxScore)
	}
	if verdict := strings.TrimSpace(opts.Verdict); verdict != "" {
		base = base.Where("verdict_level = ?", strings.ToLower(verdict))
	}
	base = base.Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	queryBuilder := base.Order(orderForSort(opts.Sort)).Offset(opts.Offset)
	if opts.Limit > 0 {
		queryBuilder = queryBuilder.Limit(opts.Limit)
	}

	var rows []Investigation
	if err := queryBuilder.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "score_asc":
		return "investigations.score ASC, investigations.created_at DESC"
	case "score_desc":
		return "investigations.score DESC, investigations.created_at DESC"
	case "name_asc":
		return "investigations.name ASC"
	case "name_desc":
		return "investigations.name DESC"
	case "created_asc":
		return "investigations.created_at ASC"
	default:
		return "investigations.created_at DESC"
	}
}

func applyIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_investigations_verdict_score ON investigations(verdict_level, score)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
