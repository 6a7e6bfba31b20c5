package models

import (
	"log"

	"bitbucket.org/mmdatafocus/garage_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Booking{}, &BookingItem{},
		&Invoice{}, &InvoiceItem{}, &InvoiceNumberSeries{},
		&Notification{},
		&Product{}, &ProductCategory{},
		&Service{}, &ServicePackage{}, &ServicePackageLine{},
		&Setting{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
