package store

import (
	"slices"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
)

func findWater(st *State, date string) int {
	return slices.IndexFunc(st.WaterLogs, func(w model.WaterLog) bool { return dates.Normalize(w.Date) == date })
}

func findWeight(st *State, date string) int {
	return slices.IndexFunc(st.WeightLogs, func(w model.WeightLog) bool { return dates.Normalize(w.Date) == date })
}

// waterLogFor returns the log of date, creating it with initial glasses when
// missing. created reports whether a new log was appended.
func (s *Store) waterLogFor(date string, initial int, bump func(*model.WaterLog) bool) (log model.WaterLog, created, changed bool) {
	d := dates.Normalize(date)
	s.apply(func(st *State) bool {
		if i := findWater(st, d); i >= 0 {
			if bump != nil && bump(&st.WaterLogs[i]) {
				changed = true
			}
			log = st.WaterLogs[i]
			return changed
		}
		log = model.WaterLog{ID: model.NewID(), Date: d, Glasses: initial, CreatedAt: s.timestamp()}
		st.WaterLogs = append(st.WaterLogs, log)
		created = true
		return true
	})
	if created {
		remoteInsert(s, waterC, log)
	}
	return log, created, changed
}

// GetOrCreateWaterLog returns the water log of date, creating an empty one.
func (s *Store) GetOrCreateWaterLog(date string) model.WaterLog {
	log, _, _ := s.waterLogFor(date, 0, nil)
	return log
}

// UpdateWaterLog merges fields into the log of date. The legacy per-day
// target is read-only and dropped from fields.
func (s *Store) UpdateWaterLog(date string, f model.Fields) error {
	f, err := f.Normalize()
	if err != nil {
		return err
	}
	delete(f, "target")
	delete(f, "date")
	if len(f) == 0 {
		return nil
	}

	d := dates.Normalize(date)
	var (
		found    bool
		mergeErr error
	)
	s.apply(func(st *State) bool {
		i := findWater(st, d)
		if i < 0 {
			return false
		}
		v, err := model.Merge(st.WaterLogs[i], f)
		if err != nil {
			mergeErr = err
			return false
		}
		st.WaterLogs[i] = v
		found = true
		return true
	})
	if mergeErr != nil || !found {
		return mergeErr
	}
	s.remoteUpdate(model.TableWaterLogs, model.Match{Column: "date", Value: d}, f)
	return nil
}

// AddGlass records one more glass on date.
func (s *Store) AddGlass(date string) model.WaterLog {
	log, created, _ := s.waterLogFor(date, 1, func(w *model.WaterLog) bool {
		w.Glasses++
		return true
	})
	if !created {
		s.remoteUpdate(model.TableWaterLogs, model.Match{Column: "date", Value: log.Date}, model.Fields{"glasses": float64(log.Glasses)})
	}
	return log
}

// RemoveGlass records one glass less on date, never going below zero.
func (s *Store) RemoveGlass(date string) model.WaterLog {
	log, _, changed := s.waterLogFor(date, 0, func(w *model.WaterLog) bool {
		if w.Glasses <= 0 {
			return false
		}
		w.Glasses--
		return true
	})
	if changed {
		s.remoteUpdate(model.TableWaterLogs, model.Match{Column: "date", Value: log.Date}, model.Fields{"glasses": float64(log.Glasses)})
	}
	return log
}

// AddWeightLog records weight on date. A date already logged gets its
// weight overwritten; there is never more than one log per date.
func (s *Store) AddWeightLog(date string, weight float64) model.WeightLog {
	d := dates.Normalize(date)
	var (
		log     model.WeightLog
		created bool
	)
	s.apply(func(st *State) bool {
		if i := findWeight(st, d); i >= 0 {
			st.WeightLogs[i].Weight = weight
			log = st.WeightLogs[i]
			return true
		}
		log = model.WeightLog{ID: model.NewID(), Date: d, Weight: weight, CreatedAt: s.timestamp()}
		st.WeightLogs = slices.Insert(st.WeightLogs, 0, log)
		created = true
		return true
	})
	if created {
		remoteInsert(s, weightC, log)
	} else {
		s.remoteUpdate(model.TableWeightLogs, model.Match{Column: "date", Value: d}, model.Fields{"weight": weight})
	}
	return log
}

// UpdateWeightLog changes the weight of a log.
func (s *Store) UpdateWeightLog(id string, weight float64) error {
	return updateRecord(s, weightC, id, model.Fields{"weight": weight})
}

// DeleteWeightLog removes a log.
func (s *Store) DeleteWeightLog(id string) bool {
	return deleteRecord(s, weightC, id)
}

// Settings returns the global settings.
func (s *Store) Settings() model.Settings {
	return s.Snapshot().Settings
}

// SetWaterTargetDefault sets the daily glass target and returns the stored value.
func (s *Store) SetWaterTargetDefault(n int) int {
	n = model.ClampWaterTarget(n)
	s.apply(func(st *State) bool {
		if st.Settings.WaterTargetDefault == n {
			return false
		}
		st.Settings.WaterTargetDefault = n
		return true
	})
	return n
}

// SetWaterGlassVolumeMl sets the glass volume and returns the stored value.
func (s *Store) SetWaterGlassVolumeMl(n int) int {
	n = model.ClampGlassVolume(n)
	s.apply(func(st *State) bool {
		if st.Settings.WaterGlassVolumeMl == n {
			return false
		}
		st.Settings.WaterGlassVolumeMl = n
		return true
	})
	return n
}

// SetWeightTarget sets or, with nil, clears the weight target.
func (s *Store) SetWeightTarget(target *float64) {
	s.apply(func(st *State) bool {
		if target == nil {
			st.Settings.WeightTarget = nil
		} else {
			st.Settings.WeightTarget = model.Ptr(*target)
		}
		return true
	})
}
