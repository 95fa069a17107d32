package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func baseRequest() BookingRequest {
	return BookingRequest{
		RoomIDs:   []int64{1},
		Adults:    []int{2},
		Children:  []int{0},
		ExtraBeds: []int{0},
		IsACs:     []bool{true},
		CheckIn:   day(10),
		CheckOut:  day(12),
		Type:      "direct",
		Now:       day(1),
	}
}

var roomColumns = []string{"id", "room_number", "occupancy", "price_ac", "price_non_ac", "online_price_ac", "online_price_non_ac", "extra_bed_price", "status"}

func TestGormStore_CreateBooking_Rollback(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		check            func(t *testing.T, err error)
	}{
		{
			name: "Missing room rolls back",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms" WHERE id IN ($1)`)).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows(roomColumns))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				var nf domain.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "room", nf.Resource)
			},
		},
		{
			name: "Over capacity rolls back",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms" WHERE id IN ($1)`)).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows(roomColumns).
						AddRow(1, "101", 1, 1000, 800, 1100, 900, 200, "available"))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "101")
			},
		},
		{
			name: "Overlapping line rolls back before the reference is taken",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "rooms" WHERE id IN ($1)`)).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows(roomColumns).
						AddRow(1, "101", 2, 1000, 800, 1100, 900, 200, "reserved"))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "booking_rooms" WHERE room_id IN ($1) AND status = $2 AND check_in <= $3 AND check_out >= $4`)).
					WithArgs(1, "active", Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "room_id", "check_in", "check_out", "status"}).
						AddRow(9, 4, 1, day(9), day(11), "active"))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				var conflict domain.ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, []string{"101"}, conflict.Keys)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB, nil, nil)

			tc.mockExpectations(mock)

			result, err := store.CreateBooking(context.Background(), baseRequest())

			assert.Nil(t, result)
			tc.check(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_CreateBooking_InvalidRequestTouchesNothing(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB, nil, nil)

	req := baseRequest()
	req.CheckOut = req.CheckIn

	_, err := store.CreateBooking(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PromoteArrivals(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB, nil, nil)
	now := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET "status"=$1,"updated_at"=$2 WHERE status = $3 AND id IN (SELECT room_id FROM "booking_rooms" WHERE status = $4 AND check_in <= $5 AND check_out >= $6)`)).
		WithArgs("occupied", Any{}, "reserved", "active", now, now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := store.PromoteArrivals(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckConflicts_KeepsOnlyOverlappingRows(t *testing.T) {
	rooms := []model.Room{{ID: 1, RoomNumber: "101"}, {ID: 2, RoomNumber: "102"}}
	lineColumns := []string{"id", "booking_id", "room_id", "check_in", "check_out", "status"}
	query := regexp.QuoteMeta(`SELECT * FROM "booking_rooms" WHERE room_id IN ($1,$2) AND status = $3 AND check_in <= $4 AND check_out >= $5`)

	testCases := []struct {
		name     string
		rows     *sqlmock.Rows
		expected []string
	}{
		{
			name:     "Touching stay conflicts",
			rows:     sqlmock.NewRows(lineColumns).AddRow(7, 3, 2, day(12), day(14), "active"),
			expected: []string{"102"},
		},
		{
			name:     "Row outside the range is ignored",
			rows:     sqlmock.NewRows(lineColumns).AddRow(8, 3, 1, day(1), day(3), "active"),
			expected: nil,
		},
		{
			name: "Only overlapping rooms are named",
			rows: sqlmock.NewRows(lineColumns).
				AddRow(7, 3, 2, day(1), day(2), "active").
				AddRow(9, 4, 1, day(11), day(15), "active"),
			expected: []string{"101"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			mock.ExpectQuery(query).
				WithArgs(1, 2, "active", Any{}, Any{}).
				WillReturnRows(tc.rows)

			err := checkConflicts(gormDB, rooms, day(10), day(12), 0)
			if tc.expected == nil {
				assert.NoError(t, err)
			} else {
				var conflict domain.ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, tc.expected, conflict.Keys)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
