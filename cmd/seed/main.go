package main

import (
	"log"

	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/config"
	"github.com/douanenc/backend/internal/database"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/utils"
)

// Seeds the reference data a fresh deployment needs: the document-type
// taxonomy, the default templates, the regulation catalogue and one
// bootstrap account per role. Re-running is a no-op for tables that
// already hold rows.
func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	seedDocumentTypes(db)
	seedTemplates(db)
	seedRegulations(db)
	seedUsers(db)

	log.Println("Seed complete")
}

func seedDocumentTypes(db *gorm.DB) {
	var count int64
	db.Model(&models.DocumentType{}).Count(&count)
	if count > 0 {
		log.Println("Document types already initialized")
		return
	}

	docTypes := []models.DocumentType{
		{Code: "CUSTOMS_REPORT", Name: "Rapport de contrôle douanier", Description: "Rapport établi à l'issue d'un contrôle de déclaration"},
		{Code: "ADMINISTRATIVE_ACT", Name: "Acte administratif de saisie", Description: "Acte constatant la saisie de marchandises"},
	}
	for i := range docTypes {
		if err := db.Create(&docTypes[i]).Error; err != nil {
			log.Fatalf("Failed to seed document type %s: %v", docTypes[i].Code, err)
		}
	}
	log.Printf("Seeded %d document types", len(docTypes))
}

func seedTemplates(db *gorm.DB) {
	var count int64
	db.Model(&models.Template{}).Count(&count)
	if count > 0 {
		log.Println("Templates already initialized")
		return
	}

	templates := []models.Template{
		{
			Name:         "Rapport de contrôle douanier",
			DocumentType: "CUSTOMS_REPORT",
			Fields: models.FieldList{
				{Name: "declaration_id", Label: "N° Déclaration", Type: models.FieldTypeText, Required: true},
				{Name: "importer_name", Label: "Nom importateur", Type: models.FieldTypeText, Required: true},
				{Name: "control_date", Label: "Date contrôle", Type: models.FieldTypeDate, Required: true},
				{Name: "findings", Label: "Constatations", Type: models.FieldTypeTextarea, Required: true},
				{Name: "decision", Label: "Décision", Type: models.FieldTypeSelect, Required: true,
					Options: []string{"Conforme", "Non-conforme", "Complément d'enquête"}},
			},
			Checklist: models.StringList{
				"Vérification identité importateur",
				"Contrôle cohérence déclaration/marchandises",
				"Vérification origine marchandises",
				"Contrôle valeur déclarée",
				"Vérification classement tarifaire",
			},
		},
		{
			Name:         "Acte administratif de saisie",
			DocumentType: "ADMINISTRATIVE_ACT",
			Fields: models.FieldList{
				{Name: "seizure_date", Label: "Date saisie", Type: models.FieldTypeDate, Required: true},
				{Name: "location", Label: "Lieu", Type: models.FieldTypeText, Required: true},
				{Name: "goods_description", Label: "Description marchandises", Type: models.FieldTypeTextarea, Required: true},
				{Name: "legal_basis", Label: "Base légale", Type: models.FieldTypeText, Required: true},
				{Name: "estimated_value", Label: "Valeur estimée", Type: models.FieldTypeNumber, Required: true},
			},
			Checklist: models.StringList{
				"Présence témoin",
				"Inventaire détaillé marchandises",
				"Photos prises",
				"Notification intéressé",
				"Mise sous séquestre",
			},
		},
	}
	for i := range templates {
		if err := db.Create(&templates[i]).Error; err != nil {
			log.Fatalf("Failed to seed template %s: %v", templates[i].Name, err)
		}
	}
	log.Printf("Seeded %d templates", len(templates))
}

func seedRegulations(db *gorm.DB) {
	var count int64
	db.Model(&models.Regulation{}).Count(&count)
	if count > 0 {
		log.Println("Regulations already initialized")
		return
	}

	regulations := []models.Regulation{
		{Code: "CD-215", Title: "Fausse déclaration d'origine",
			Description: "Déclaration erronée du pays d'origine des marchandises",
			Category:    "Origin", FineRate: 0.15},
		{Code: "CD-230", Title: "Sous-évaluation",
			Description: "Déclaration d'une valeur inférieure à la valeur réelle",
			Category:    "Value", FineRate: 0.25},
		{Code: "CD-182", Title: "Fausse déclaration d'espèce",
			Description: "Classification tarifaire incorrecte des marchandises",
			Category:    "Classification", FineRate: 0.20},
	}
	for i := range regulations {
		if err := db.Create(&regulations[i]).Error; err != nil {
			log.Fatalf("Failed to seed regulation %s: %v", regulations[i].Code, err)
		}
	}
	log.Printf("Seeded %d regulations", len(regulations))
}

func seedUsers(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already initialized")
		return
	}

	accounts := []struct {
		username string
		fullName string
		role     models.Role
	}{
		{"redacteur", "Agent Rédacteur", models.RoleDraftingAgent},
		{"controleur", "Officier de Contrôle", models.RoleControlOfficer},
		{"validateur", "Officier de Validation", models.RoleValidationOfficer},
		{"moa", "Maîtrise d'Ouvrage", models.RoleMOA},
	}
	for _, account := range accounts {
		hash, err := utils.HashPassword("ChangeMe!2024")
		if err != nil {
			log.Fatalf("Failed to hash bootstrap password: %v", err)
		}
		user := models.User{
			Username:     account.username,
			Email:        account.username + "@douane.nc",
			FullName:     account.fullName,
			PasswordHash: hash,
			Role:         account.role,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Failed to seed user %s: %v", account.username, err)
		}
	}
	log.Printf("Seeded %d bootstrap users", len(accounts))
}
