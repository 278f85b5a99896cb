package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections.
// SQL is PostgreSQL in deployments and SQLite for local runs.
type DB struct {
	SQL     *gorm.DB
	Mongo   *mongo.Client
	MongoDB *mongo.Database
}

// InitDB opens both stores and verifies they answer a ping
func InitDB(cfg *Config) (*DB, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	sqlDB, err := openSQL(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relational store: %w", err)
	}

	mongoClient, err := openMongo(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &DB{
		SQL:     sqlDB,
		Mongo:   mongoClient,
		MongoDB: mongoClient.Database(cfg.MongoDB),
	}, nil
}

func openSQL(cfg *Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.Env == "development" {
		level = logger.Info
	}
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(level)}

	dialector := postgres.Open(cfg.PostgresUrl)
	name := "PostgreSQL"
	if cfg.PostgresUrl == "" {
		dialector = sqlite.Open(cfg.SQLitePath)
		name = "SQLite (" + cfg.SQLitePath + ")"
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	log.Printf("Successfully connected to %s!", name)
	return db, nil
}

func openMongo(cfg *Config) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("prehome-api").
		SetServerSelectionTimeout(cfg.DBTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

// Ping reports the first store that does not answer
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.SQL.DB()
	if err != nil {
		return fmt.Errorf("relational store: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("relational store: %w", err)
	}
	if err := db.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	return nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing relational connection: %v\n", err)
		} else {
			log.Println("Relational connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v\n", err)
		} else {
			log.Println("MongoDB connection closed.")
		}
	}
}
