// Package repository reads the employee directory. Employees are managed by
// the back office; this service only looks them up.
package repository

import (
	"context"
	"errors"
	"fmt"

	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("employee not found")

type EmployeeRepository interface {
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindActiveByRole(ctx context.Context, role string) ([]*model.Employee, error)
}

type mongoEmployeeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEmployeeRepository(cfg *config.Config) EmployeeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEmployeeRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionEmployees),
	}
}

func (r *mongoEmployeeRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var employee model.Employee
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&employee); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return &employee, nil
}

func (r *mongoEmployeeRepository) FindActiveByRole(ctx context.Context, role string) ([]*model.Employee, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"role": role, "account_status": model.StatusActive}
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s employees: %w", role, err)
	}
	defer cursor.Close(ctx)

	employees := make([]*model.Employee, 0)
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}
	return employees, nil
}
