package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/storage/database"
)

type studentDoc struct {
	ID             string    `bson:"_id"`
	TenantID       string    `bson:"tenantId"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email,omitempty"`
	AdmissionNo    string    `bson:"admissionNo"`
	RegistrationNo string    `bson:"registrationNo"`
	RollNo         string    `bson:"rollNo,omitempty"`
	ClassSuffix    string    `bson:"classSuffix,omitempty"`
	Section        string    `bson:"section,omitempty"`
	IsActive       *bool     `bson:"isActive"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *mongo.Database) *studentRepository {
	return &studentRepository{coll: db.Collection(database.StudentCollection)}
}

func (repo studentRepository) doc(s student.Student) studentDoc {
	return studentDoc{
		ID:             s.ID,
		TenantID:       s.TenantID,
		Name:           s.Name,
		Email:          s.Email,
		AdmissionNo:    s.AdmissionNo,
		RegistrationNo: s.RegistrationNo,
		RollNo:         s.RollNo,
		ClassSuffix:    s.ClassSuffix,
		Section:        s.Section,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt.UTC(),
		UpdatedAt:      s.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) undoc(d studentDoc) student.Student {
	return student.Student{
		ID:             d.ID,
		TenantID:       d.TenantID,
		Name:           d.Name,
		Email:          d.Email,
		AdmissionNo:    d.AdmissionNo,
		RegistrationNo: d.RegistrationNo,
		RollNo:         d.RollNo,
		ClassSuffix:    d.ClassSuffix,
		Section:        d.Section,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	d := repo.doc(s)
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// a concurrent enrollment won the race for this identifier
			return student.Student{}, student.ErrDuplicateIdentifier
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.undoc(d), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, tenantID string, filter *student.QueryFilter) ([]student.Student, error) {
	match := bson.M{"tenantId": tenantID}
	if filter != nil {
		// students with Name, Email or AdmissionNo matching the search keyword
		if filter.Search != "" {
			re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
			match["$or"] = bson.A{
				bson.M{"name": re},
				bson.M{"email": re},
				bson.M{"admissionNo": re},
			}
		}
		if filter.ClassSuffix != "" {
			match["classSuffix"] = filter.ClassSuffix
		}
		if filter.Section != "" {
			match["section"] = filter.Section
		}
		if filter.IsActive != nil {
			match["isActive"] = *filter.IsActive
		}
	}

	cur, err := repo.coll.Find(ctx, match, options.Find().SetSort(bson.D{{Key: "admissionNo", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	var docs []studentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	students := make([]student.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, repo.undoc(d))
	}
	return students, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, tenantID, id string) (student.Student, error) {
	var d studentDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id, "tenantId": tenantID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	return repo.undoc(d), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student, isActive *bool) (student.Student, error) {
	set := bson.M{"updatedAt": s.UpdatedAt.UTC()}
	if s.Name != "" {
		set["name"] = s.Name
	}
	if s.Email != "" {
		set["email"] = s.Email
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d studentDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": s.ID, "tenantId": s.TenantID}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return repo.undoc(d), nil
}

func (repo studentRepository) LastAdmissionNo(ctx context.Context, tenantID, prefix string) (string, error) {
	return repo.lastIdentifier(ctx, tenantID, "admissionNo", prefix)
}

func (repo studentRepository) LastRegistrationNo(ctx context.Context, tenantID, prefix string) (string, error) {
	return repo.lastIdentifier(ctx, tenantID, "registrationNo", prefix)
}

func (repo studentRepository) LastRollNo(ctx context.Context, tenantID, prefix string) (string, error) {
	return repo.lastIdentifier(ctx, tenantID, "rollNo", prefix)
}

// lastIdentifier finds the highest identifier in `field` starting with
// prefix, scoped to the tenant. Lexicographic descending order is sufficient:
// zero-padding keeps it identical to numeric order within one prefix.
func (repo studentRepository) lastIdentifier(ctx context.Context, tenantID, field, prefix string) (string, error) {
	filter := bson.M{
		"tenantId": tenantID,
		field:      primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)},
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.M{field: 1})

	var d bson.M
	if err := repo.coll.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", errors.Wrapf(err, "scanning last %s", field)
	}
	last, _ := d[field].(string)
	return last, nil
}
