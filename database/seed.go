package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pvc/entities"
	"pvc/pkg/effort"
)

// Catalog is the construct-type list the shop starts with.
var Catalog = []entities.ConstructType{
	{Code: "K", Label: "Трапеція"},
	{Code: "G", Label: "Арка"},
	{Code: "KD", Label: "Косі Двері"},
	{Code: "GD", Label: "Гнуті Двері"},
	{Code: "Q", Label: "Розсувні системи"},
	{Code: "EXP", Label: "Експорт"},
	{Code: "Q76", Label: "SL76"},
	{Code: "R", Label: "Примітки"},
	{Code: "D", Label: "Прямі Двері"},
}

// DefaultTeams maps each team to the type codes it performs.
var DefaultTeams = []struct {
	Name  string
	Codes []string
}{
	{"Команда K", []string{"K", "G", "KD", "GD"}},
	{"Команда D", []string{"D", "R"}},
	{"Команда Q", []string{"Q", "Q76", "R", "EXP"}},
}

// Seed upserts the catalog and the default teams. Team type sets are
// replaced, so running it again restores them. With samples it also adds a
// handful of tasks for today and tomorrow, skipping cells already taken.
func Seed(db *gorm.DB, samples bool, loc *time.Location) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byCode := map[string]uint{}
		for _, t := range Catalog {
			t.IsActive = true
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"label"}),
			}).Create(&t).Error; err != nil {
				return fmt.Errorf("type %s: %w", t.Code, err)
			}
			// the upsert leaves ID unset on conflict
			if err := tx.Where("code = ?", t.Code).First(&t).Error; err != nil {
				return err
			}
			byCode[t.Code] = t.ID
		}

		teams := map[string]uint{}
		for _, d := range DefaultTeams {
			team := entities.Team{Name: d.Name}
			if err := tx.Where(entities.Team{Name: d.Name}).FirstOrCreate(&team).Error; err != nil {
				return fmt.Errorf("team %s: %w", d.Name, err)
			}
			if err := tx.Where("team_id = ?", team.ID).Delete(&entities.TeamType{}).Error; err != nil {
				return err
			}
			rows := make([]entities.TeamType, len(d.Codes))
			for i, code := range d.Codes {
				rows[i] = entities.TeamType{TeamID: team.ID, TypeID: byCode[code]}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			teams[d.Name] = team.ID
		}
		if !samples {
			return nil
		}

		now := time.Now().In(loc)
		today := effort.DayKey(now, loc)
		tomorrow := effort.DayKey(now.AddDate(0, 0, 1), loc)
		team := func(name string) *uint {
			id := teams[name]
			return &id
		}
		desc := func(s string) *string { return &s }
		tasks := []entities.Task{
			{Batch: "П-2025-001", Cell: "А-01", TypeID: byCode["K"], QtyItems: 3, ImpostsPerItem: 2, PlannedDate: today, TeamID: team("Команда K"), Description: desc("Трапецієподібне вікно, велике")},
			{Batch: "П-2025-001", Cell: "А-02", TypeID: byCode["G"], QtyItems: 2, ImpostsPerItem: 1, PlannedDate: today, TeamID: team("Команда K"), Description: desc("Арка стандартна")},
			{Batch: "П-2025-001", Cell: "Б-01", TypeID: byCode["D"], QtyItems: 4, PlannedDate: tomorrow, TeamID: team("Команда D"), Description: desc("Прямі двері 900мм")},
			{Batch: "П-2025-002", Cell: "В-01", TypeID: byCode["Q"], QtyItems: 1, ImpostsPerItem: 3, PlannedDate: today, TeamID: team("Команда Q"), Description: desc("Розсувна система 3-стулкова")},
			{Batch: "П-2025-002", Cell: "В-02", TypeID: byCode["Q76"], QtyItems: 2, ImpostsPerItem: 1, PlannedDate: today, TeamID: team("Команда Q")},
		}
		for _, t := range tasks {
			t.Status = entities.TaskNew
			var n int64
			if err := tx.Model(&entities.Task{}).Where("batch = ? AND cell = ?", t.Batch, t.Cell).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
