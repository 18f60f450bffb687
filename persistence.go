package bfopt

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sqlite "github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	gorm "gorm.io/gorm"

	bf "nickandperla.net/bfopt/brainfuck"
)

type PersistenceConfig struct {
	Name          string   `toml:"name"`
	Path          string   `toml:"path"`
	SQLitePragmas []string `toml:"sqlite_pragmas"`
	SQLiteOptions []string `toml:"sqlite_options"`
	BatchSize     int      `toml:"batch_size"`
}

// RunRecord is one execution of one form of a fixture's program. Output and
// Program are zstd blobs; Program holds the CBOR encoded IR.
type RunRecord struct {
	ID                   uint
	CreatedAt            time.Time
	Name                 string
	ProgramHash          string `gorm:"index"`
	Mode                 RunMode
	Passed               bool
	Reason               FailReason
	ProgramLen           uint
	InstructionsExecuted uint
	ElapsedNanos         int64
	Distance             int
	MachineError         *string
	Output               []byte `gorm:"type:blob"`
	Program              []byte `gorm:"type:blob"`
	Passes               []*PassRecord
}

// PassRecord is one optimizer pass applied before an optimized run.
type PassRecord struct {
	ID           uint
	RunRecordID  uint `gorm:"index"`
	Seq          uint
	Pass         string
	LenBefore    uint
	LenAfter     uint
	ElapsedNanos int64
}

type Persistence struct {
	Config *PersistenceConfig
	DB     *gorm.DB
	// SQLite allows a single writer; suite workers take turns.
	writeLock sync.Mutex
}

// ResultPersistor stores a finished evaluation.
type ResultPersistor func(*Result) error

func NewPersistence(config *PersistenceConfig) (*Persistence, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if len(config.Path) == 0 {
		return nil, fmt.Errorf("Path to database must be defined")
	}

	if len(config.Name) == 0 {
		return nil, fmt.Errorf("Name of database must be defined")
	}

	params := make([]string, 0, len(config.SQLitePragmas)+len(config.SQLiteOptions))
	for _, prag := range config.SQLitePragmas {
		params = append(params, fmt.Sprintf("_pragma=%s", prag))
	}
	params = append(params, config.SQLiteOptions...)

	var path strings.Builder
	path.WriteString(filepath.Join(config.Path, config.Name))
	if len(params) > 0 {
		path.WriteRune('?')
		path.WriteString(strings.Join(params, "&"))
	}

	db, err := gorm.Open(sqlite.Open(path.String()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	db = db.Session(&gorm.Session{PrepareStmt: true, CreateBatchSize: batchSize})

	p := &Persistence{Config: config, DB: db}
	if err = p.initialize(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Persistence) initialize() error {
	return p.DB.AutoMigrate(
		&RunRecord{},
		&PassRecord{},
	)
}

func (p *Persistence) Shutdown() {
	if sqldb, err := p.DB.DB(); err != nil {
		log.Fatalf("Failed to retrieve raw DB: %v", err)
	} else {
		sqldb.Close()
	}
}

// SQLDB exposes the underlying connection for raw metric queries.
func (p *Persistence) SQLDB() (*sql.DB, error) {
	return p.DB.DB()
}

// SaveRuns stores records along with their pass records.
func (p *Persistence) SaveRuns(records *[]*RunRecord) error {
	if records == nil || len(*records) == 0 {
		return nil
	}
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	if result := p.DB.Create(records); result.Error != nil {
		return fmt.Errorf("Failed to call gorm.Create(): %w", result.Error)
	}
	return nil
}

func (p *Persistence) SaveResult(r *Result) error {
	records, err := NewRunRecords(r)
	if err != nil {
		return err
	}
	return p.SaveRuns(&records)
}

func (p *Persistence) GetResultPersistor() ResultPersistor {
	return p.SaveResult
}

// LoadRuns returns every run of the program with hash, oldest first.
func (p *Persistence) LoadRuns(hash string) ([]*RunRecord, error) {
	var records []*RunRecord
	result := p.DB.
		Preload("Passes", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Where("program_hash = ?", hash).
		Order("id").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("Failed to load runs for program [%s]: %w", hash, result.Error)
	}
	return records, nil
}

// NewRunRecords flattens r into one record per executed outcome. Pass
// records are attached to the optimized run.
func NewRunRecords(r *Result) ([]*RunRecord, error) {
	var records []*RunRecord
	for _, o := range []*Outcome{r.Raw, r.Optimized} {
		if o == nil {
			continue
		}
		rec, err := newRunRecord(r, o)
		if err != nil {
			return nil, err
		}
		if o.Mode == ModeOptimized {
			for i, ps := range r.Passes {
				rec.Passes = append(rec.Passes, &PassRecord{
					Seq:          uint(i),
					Pass:         ps.Pass.String(),
					LenBefore:    uint(ps.LenBefore),
					LenAfter:     uint(ps.LenAfter),
					ElapsedNanos: ps.Elapsed.Nanoseconds(),
				})
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func newRunRecord(r *Result, o *Outcome) (*RunRecord, error) {
	rec := &RunRecord{
		Name:                 r.Fixture.Name,
		ProgramHash:          r.ProgramHash,
		Mode:                 o.Mode,
		Passed:               r.Passed(),
		Reason:               r.Reason,
		ProgramLen:           o.ProgramLen,
		InstructionsExecuted: o.InstructionsExecuted,
		ElapsedNanos:         o.Elapsed.Nanoseconds(),
		Distance:             o.Distance,
	}
	if o.MachineError != nil {
		msg := o.MachineError.Error()
		rec.MachineError = &msg
	}

	var err error
	if rec.Output, err = packBlob(o.Output); err != nil {
		return nil, err
	}
	ir, err := bf.MarshalProgram(o.Program)
	if err != nil {
		return nil, fmt.Errorf("Failed to encode [%s] program of fixture [%s]. %w", o.Mode, r.Fixture.Name, err)
	}
	if rec.Program, err = packBlob(ir); err != nil {
		return nil, err
	}
	return rec, nil
}

func (rec *RunRecord) DecodeOutput() ([]byte, error) {
	return unpackBlob(rec.Output)
}

func (rec *RunRecord) DecodeProgram() (bf.Program, error) {
	ir, err := unpackBlob(rec.Program)
	if err != nil {
		return bf.Program{}, err
	}
	return bf.UnmarshalProgram(ir)
}
