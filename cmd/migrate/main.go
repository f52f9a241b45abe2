// Command migrate applies the Postgres schema migrations without starting the server.
package main

import (
	"log"
	"os"

	"todoapp/internal/server"
	db "todoapp/repository/db"
)

func main() {
	cfg, err := server.ReadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("[ERROR] Ошибка чтения конфигурации: %v", err)
	}
	if cfg.Storage != server.StoragePostgres {
		log.Printf("Хранилище %q не использует SQL-миграции", cfg.Storage)
		return
	}

	log.Printf("Применение миграций из %s", cfg.MigratePath)
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.Fatalf("[ERROR] Ошибка применения миграций: %v", err)
	}
	log.Println("[SUCCESS] Миграции применены успешно")
}
