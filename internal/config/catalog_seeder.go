package config

import (
	"errors"

	"school-equiplend/internal/adapters/persistence/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// starterCatalog is loaded on first boot when SEED_DEMO_CATALOG is true
var starterCatalog = []models.Equipment{
	{Name: "Basketball", Category: "Sports", Condition: "Good", Quantity: 10, Availability: true},
	{Name: "Football", Category: "Sports", Condition: "Good", Quantity: 8, Availability: true},
	{Name: "Badminton Racket Set", Category: "Sports", Condition: "Good", Quantity: 6, Availability: true},
	{Name: "Microscope", Category: "Lab", Condition: "Good", Quantity: 5, Availability: true},
	{Name: "Digital Multimeter", Category: "Lab", Condition: "Good", Quantity: 4, Availability: true},
	{Name: "DSLR Camera", Category: "Media", Condition: "Good", Quantity: 2, Availability: true},
	{Name: "Tripod", Category: "Media", Condition: "Fair", Quantity: 3, Availability: true},
	{Name: "Projector", Category: "AV", Condition: "Good", Quantity: 2, Availability: true},
	{Name: "Portable Speaker", Category: "AV", Condition: "Good", Quantity: 3, Availability: true},
	{Name: "Acoustic Guitar", Category: "Music", Condition: "Good", Quantity: 4, Availability: true},
}

// SeedCatalog inserts the starter catalog items that do not exist yet
func SeedCatalog(db *gorm.DB, log *zap.Logger) error {
	created := 0
	for _, item := range starterCatalog {
		var existing models.Equipment
		err := db.Where("name = ? AND category = ?", item.Name, item.Category).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		item := item
		if err := db.Create(&item).Error; err != nil {
			return err
		}
		created++
		log.Debug("created equipment", zap.String("name", item.Name))
	}

	log.Info("starter catalog seeded", zap.Int("created", created))
	return nil
}
