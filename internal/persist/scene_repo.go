package persist

import (
	"context"
	"errors"

	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

var ErrSceneNotFound = errors.New("scene not found")

type SceneRow struct {
	Name   string
	Focus  string
	Script string
}

type ContextRow struct {
	ID         string
	Parent     string
	Visibility string
	Simulation string
	Script     string
}

type SystemRow struct {
	Context  string
	Name     string
	Script   string
	Phase    string
	Priority int32
	Disabled bool
}

type EntityRow struct {
	Context   string
	Kind      string
	Name      string
	X, Y      float64
	Glyph     string
	Color     string
	Layer     int32
	ShapeKind *string
	ShapeW    float64
	ShapeH    float64
	ShapeR    float64
	Target    string
	SpawnX    *float64
	SpawnY    *float64
	Region    string
	VelX      *float64
	VelY      *float64
	Speed     float64
}

// SceneRepo stores scenes in the same shape as the YAML scene files.
type SceneRepo struct {
	db *DB
}

func NewSceneRepo(db *DB) *SceneRepo {
	return &SceneRepo{db: db}
}

// Load reads a scene and returns it validated. Contexts, systems and entities
// come back in their stored order.
func (r *SceneRepo) Load(ctx context.Context, name string) (*data.SceneFile, error) {
	var s SceneRow
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, focus, script FROM scenes WHERE name = $1`, name,
	).Scan(&s.Name, &s.Focus, &s.Script)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrSceneNotFound, "%q", name)
	}
	if err != nil {
		return nil, eris.Wrap(err, "load scene")
	}

	ctxs, err := r.loadContexts(ctx, name)
	if err != nil {
		return nil, err
	}
	systems, err := r.loadSystems(ctx, name)
	if err != nil {
		return nil, err
	}
	ents, err := r.loadEntities(ctx, name)
	if err != nil {
		return nil, err
	}

	f, err := AssembleScene(s, ctxs, systems, ents)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *SceneRepo) loadContexts(ctx context.Context, scene string) ([]ContextRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, parent, visibility, simulation, script
		 FROM scene_contexts WHERE scene = $1 ORDER BY ord`, scene)
	if err != nil {
		return nil, eris.Wrap(err, "load contexts")
	}
	defer rows.Close()

	var result []ContextRow
	for rows.Next() {
		var c ContextRow
		if err := rows.Scan(&c.ID, &c.Parent, &c.Visibility, &c.Simulation, &c.Script); err != nil {
			return nil, eris.Wrap(err, "scan context")
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *SceneRepo) loadSystems(ctx context.Context, scene string) ([]SystemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT context, name, script, phase, priority, disabled
		 FROM scene_systems WHERE scene = $1 ORDER BY context, ord`, scene)
	if err != nil {
		return nil, eris.Wrap(err, "load systems")
	}
	defer rows.Close()

	var result []SystemRow
	for rows.Next() {
		var s SystemRow
		if err := rows.Scan(&s.Context, &s.Name, &s.Script, &s.Phase, &s.Priority, &s.Disabled); err != nil {
			return nil, eris.Wrap(err, "scan system")
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *SceneRepo) loadEntities(ctx context.Context, scene string) ([]EntityRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT context, kind, name, x, y, glyph, color, layer,
		        shape_kind, shape_w, shape_h, shape_r,
		        target, spawn_x, spawn_y, region, vel_x, vel_y, speed
		 FROM scene_entities WHERE scene = $1 ORDER BY context, ord`, scene)
	if err != nil {
		return nil, eris.Wrap(err, "load entities")
	}
	defer rows.Close()

	var result []EntityRow
	for rows.Next() {
		var e EntityRow
		if err := rows.Scan(
			&e.Context, &e.Kind, &e.Name, &e.X, &e.Y, &e.Glyph, &e.Color, &e.Layer,
			&e.ShapeKind, &e.ShapeW, &e.ShapeH, &e.ShapeR,
			&e.Target, &e.SpawnX, &e.SpawnY, &e.Region, &e.VelX, &e.VelY, &e.Speed,
		); err != nil {
			return nil, eris.Wrap(err, "scan entity")
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// AssembleScene groups catalog rows into a scene file. Systems and entities
// attached to an unknown context are an error.
func AssembleScene(s SceneRow, ctxs []ContextRow, systems []SystemRow, ents []EntityRow) (*data.SceneFile, error) {
	f := &data.SceneFile{Name: s.Name, Focus: s.Focus, Script: s.Script}
	index := make(map[string]int, len(ctxs))
	for _, c := range ctxs {
		index[c.ID] = len(f.Contexts)
		f.Contexts = append(f.Contexts, data.ContextEntry{
			ID:         c.ID,
			Parent:     c.Parent,
			Visibility: c.Visibility,
			Simulation: c.Simulation,
			Script:     c.Script,
		})
	}
	for _, sys := range systems {
		i, ok := index[sys.Context]
		if !ok {
			return nil, eris.Errorf("system %q references unknown context %q", sys.Name, sys.Context)
		}
		f.Contexts[i].Systems = append(f.Contexts[i].Systems, data.SystemEntry{
			Name:     sys.Name,
			Script:   sys.Script,
			Phase:    sys.Phase,
			Priority: int(sys.Priority),
			Disabled: sys.Disabled,
		})
	}
	for _, e := range ents {
		i, ok := index[e.Context]
		if !ok {
			return nil, eris.Errorf("entity %s references unknown context %q", e.Kind, e.Context)
		}
		f.Contexts[i].Entities = append(f.Contexts[i].Entities, e.entry())
	}
	return f, nil
}

func (e EntityRow) entry() data.EntityEntry {
	out := data.EntityEntry{
		Kind:   e.Kind,
		Name:   e.Name,
		X:      e.X,
		Y:      e.Y,
		Glyph:  e.Glyph,
		Color:  e.Color,
		Layer:  int(e.Layer),
		Target: e.Target,
		Region: e.Region,
		Speed:  e.Speed,
	}
	if e.ShapeKind != nil {
		out.Shape = &data.ShapeEntry{Kind: *e.ShapeKind, W: e.ShapeW, H: e.ShapeH, R: e.ShapeR}
	}
	if e.SpawnX != nil && e.SpawnY != nil {
		out.Spawn = &data.PointEntry{X: *e.SpawnX, Y: *e.SpawnY}
	}
	if e.VelX != nil && e.VelY != nil {
		out.Velocity = &data.PointEntry{X: *e.VelX, Y: *e.VelY}
	}
	return out
}

// Save replaces the stored scene with f in one transaction.
func (r *SceneRepo) Save(ctx context.Context, f *data.SceneFile) error {
	if err := f.Validate(); err != nil {
		return err
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "begin save scene")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scenes WHERE name = $1`, f.Name); err != nil {
		return eris.Wrap(err, "delete scene")
	}
	if _, err := tx.Exec(ctx, `INSERT INTO scenes (name, focus, script) VALUES ($1, $2, $3)`, f.Name, f.Focus, f.Script); err != nil {
		return eris.Wrap(err, "insert scene")
	}

	batch := &pgx.Batch{}
	for ci, c := range f.Contexts {
		batch.Queue(
			`INSERT INTO scene_contexts (scene, id, ord, parent, visibility, simulation, script)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.Name, c.ID, ci, c.Parent, c.Visibility, c.Simulation, c.Script)
	}
	for _, c := range f.Contexts {
		for si, s := range c.Systems {
			batch.Queue(
				`INSERT INTO scene_systems (scene, context, ord, name, script, phase, priority, disabled)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				f.Name, c.ID, si, s.Name, s.Script, s.Phase, s.Priority, s.Disabled)
		}
		for ei, e := range c.Entities {
			row := rowFromEntry(c.ID, e)
			batch.Queue(
				`INSERT INTO scene_entities (scene, context, ord, kind, name, x, y, glyph, color, layer,
				        shape_kind, shape_w, shape_h, shape_r,
				        target, spawn_x, spawn_y, region, vel_x, vel_y, speed)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
				f.Name, c.ID, ei, row.Kind, row.Name, row.X, row.Y, row.Glyph, row.Color, row.Layer,
				row.ShapeKind, row.ShapeW, row.ShapeH, row.ShapeR,
				row.Target, row.SpawnX, row.SpawnY, row.Region, row.VelX, row.VelY, row.Speed)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return eris.Wrap(err, "insert scene rows")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "commit save scene")
	}
	return nil
}

func rowFromEntry(ctx string, e data.EntityEntry) EntityRow {
	row := EntityRow{
		Context: ctx,
		Kind:    e.Kind,
		Name:    e.Name,
		X:       e.X,
		Y:       e.Y,
		Glyph:   e.Glyph,
		Color:   e.Color,
		Layer:   int32(e.Layer),
		Target:  e.Target,
		Region:  e.Region,
		Speed:   e.Speed,
	}
	if e.Shape != nil {
		kind := e.Shape.Kind
		row.ShapeKind = &kind
		row.ShapeW, row.ShapeH, row.ShapeR = e.Shape.W, e.Shape.H, e.Shape.R
	}
	if e.Spawn != nil {
		x, y := e.Spawn.X, e.Spawn.Y
		row.SpawnX, row.SpawnY = &x, &y
	}
	if e.Velocity != nil {
		x, y := e.Velocity.X, e.Velocity.Y
		row.VelX, row.VelY = &x, &y
	}
	return row
}
