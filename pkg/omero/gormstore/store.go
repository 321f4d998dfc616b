// Package gormstore is the bundled sqlite backend of the omero.Gateway
// interface. It keeps the same container/link structure the server model
// uses: one table per entity type plus a generic links table keyed by
// parent and child kind.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/roi"
)

type projectRow struct {
	ID             int64 `gorm:"primaryKey"`
	Name           string
	Description    string
	OwnerUserName  string
	OwnerFirstName string
	OwnerLastName  string
	OwnerEmail     string
}

type datasetRow struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description string
}

type imageRow struct {
	ID              int64 `gorm:"primaryKey"`
	Name            string
	Description     string
	Path            string
	Owner           string
	AcquisitionTime time.Time
	SizeX           int
	SizeY           int
	SizeZ           int
	PixelSizeX      float64
	PixelSizeY      float64
	PixelSizeZ      float64
	PixelSizeUnit   string
}

type annotationRow struct {
	ID        int64 `gorm:"primaryKey"`
	Namespace string
	// Pairs is the JSON-encoded ordered key-value list.
	Pairs string
}

type roiRow struct {
	ID      int64 `gorm:"primaryKey"`
	ImageID int64 `gorm:"index"`
	// Shapes is the JSON-encoded shape list in wire format.
	Shapes string
}

type linkRow struct {
	ID         int64  `gorm:"primaryKey"`
	Kind       string `gorm:"index"`
	ParentKind string
	ParentID   int64 `gorm:"index"`
	ChildKind  string
	ChildID    int64
}

// Store implements omero.Gateway on a sqlite database.
type Store struct {
	db      *gorm.DB
	session string
}

// Open creates or opens the sqlite database at path and migrates the
// schema. Each Open starts a fresh session key.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&projectRow{}, &datasetRow{}, &imageRow{}, &annotationRow{}, &roiRow{}, &linkRow{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, session: uuid.NewString()}, nil
}

func (s *Store) SessionKey() string { return s.session }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateProject(ctx context.Context, p *omero.Project) error {
	row := projectRow{
		Name:           p.Name,
		Description:    p.Description,
		OwnerUserName:  p.Owner.UserName,
		OwnerFirstName: p.Owner.FirstName,
		OwnerLastName:  p.Owner.LastName,
		OwnerEmail:     p.Owner.Email,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.ID = row.ID
	return nil
}

func (s *Store) CreateDataset(ctx context.Context, d *omero.Dataset) error {
	row := datasetRow{Name: d.Name, Description: d.Description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	d.ID = row.ID
	return nil
}

func (s *Store) CreateImage(ctx context.Context, img *omero.Image) error {
	row := imageRow{
		Name:            img.Name,
		Description:     img.Description,
		Path:            img.Path,
		Owner:           img.Owner,
		AcquisitionTime: img.AcquisitionTime,
		SizeX:           img.SizeX,
		SizeY:           img.SizeY,
		SizeZ:           img.SizeZ,
		PixelSizeX:      img.PixelSizeX,
		PixelSizeY:      img.PixelSizeY,
		PixelSizeZ:      img.PixelSizeZ,
		PixelSizeUnit:   img.PixelSizeUnit,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	img.ID = row.ID
	return nil
}

func (s *Store) CreateAnnotation(ctx context.Context, a *omero.MapAnnotation) error {
	pairs, err := json.Marshal(a.Pairs)
	if err != nil {
		return fmt.Errorf("encode annotation pairs: %w", err)
	}
	row := annotationRow{Namespace: a.Namespace, Pairs: string(pairs)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}
	a.ID = row.ID
	return nil
}

func (s *Store) CreateROI(ctx context.Context, r *omero.ROI) error {
	shapes, err := roi.MarshalShapes(r.Shapes)
	if err != nil {
		return fmt.Errorf("encode shapes: %w", err)
	}
	row := roiRow{ImageID: r.ImageID, Shapes: string(shapes)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create roi: %w", err)
	}
	r.ID = row.ID
	return nil
}

func (s *Store) Link(ctx context.Context, parent, child omero.Object) error {
	kind, err := omero.LinkType(parent.ObjectKind(), child.ObjectKind())
	if err != nil {
		return err
	}
	row := linkRow{
		Kind:       kind,
		ParentKind: string(parent.ObjectKind()),
		ParentID:   parent.ObjectID(),
		ChildKind:  string(child.ObjectKind()),
		ChildID:    child.ObjectID(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*omero.Project, error) {
	var row projectRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, omero.ErrNotFound)
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &omero.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Owner: omero.Owner{
			UserName:  row.OwnerUserName,
			FirstName: row.OwnerFirstName,
			LastName:  row.OwnerLastName,
			Email:     row.OwnerEmail,
		},
	}, nil
}

func (s *Store) GetImage(ctx context.Context, id int64) (*omero.Image, error) {
	var row imageRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image %d: %w", id, omero.ErrNotFound)
		}
		return nil, fmt.Errorf("get image %d: %w", id, err)
	}
	img := imageFromRow(row)
	return &img, nil
}

func (s *Store) ListAnnotations(ctx context.Context, obj omero.Object) ([]*omero.MapAnnotation, error) {
	ids, err := s.childIDs(ctx, obj, omero.KindAnnotation)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []annotationRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	out := make([]*omero.MapAnnotation, len(rows))
	for i, row := range rows {
		var pairs []omero.NamedValue
		if err := json.Unmarshal([]byte(row.Pairs), &pairs); err != nil {
			return nil, fmt.Errorf("decode annotation %d: %w", row.ID, err)
		}
		out[i] = &omero.MapAnnotation{ID: row.ID, Namespace: row.Namespace, Pairs: pairs}
	}
	return out, nil
}

func (s *Store) ListDatasets(ctx context.Context, projectID int64) ([]*omero.Dataset, error) {
	ids, err := s.childIDs(ctx, &omero.Project{ID: projectID}, omero.KindDataset)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []datasetRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]*omero.Dataset, len(rows))
	for i, row := range rows {
		out[i] = &omero.Dataset{ID: row.ID, Name: row.Name, Description: row.Description}
	}
	return out, nil
}

func (s *Store) ListImages(ctx context.Context, datasetID int64) ([]*omero.Image, error) {
	ids, err := s.childIDs(ctx, &omero.Dataset{ID: datasetID}, omero.KindImage)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []imageRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make([]*omero.Image, len(rows))
	for i, row := range rows {
		img := imageFromRow(row)
		out[i] = &img
	}
	return out, nil
}

func (s *Store) ListROIs(ctx context.Context, imageID int64) ([]*omero.ROI, error) {
	var rows []roiRow
	if err := s.db.WithContext(ctx).Where("image_id = ?", imageID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list rois: %w", err)
	}
	out := make([]*omero.ROI, len(rows))
	for i, row := range rows {
		shapes, err := roi.UnmarshalShapes([]byte(row.Shapes))
		if err != nil {
			return nil, fmt.Errorf("decode roi %d: %w", row.ID, err)
		}
		out[i] = &omero.ROI{ID: row.ID, ImageID: row.ImageID, Shapes: shapes}
	}
	return out, nil
}

func (s *Store) childIDs(ctx context.Context, parent omero.Object, childKind omero.Kind) ([]int64, error) {
	var rows []linkRow
	err := s.db.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ? AND child_kind = ?",
			string(parent.ObjectKind()), parent.ObjectID(), string(childKind)).
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ChildID
	}
	return ids, nil
}

func imageFromRow(row imageRow) omero.Image {
	return omero.Image{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		Path:            row.Path,
		Owner:           row.Owner,
		AcquisitionTime: row.AcquisitionTime,
		SizeX:           row.SizeX,
		SizeY:           row.SizeY,
		SizeZ:           row.SizeZ,
		PixelSizeX:      row.PixelSizeX,
		PixelSizeY:      row.PixelSizeY,
		PixelSizeZ:      row.PixelSizeZ,
		PixelSizeUnit:   row.PixelSizeUnit,
	}
}
