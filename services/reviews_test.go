package services

import (
	"testing"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reviewFixture struct {
	db         *gorm.DB
	manager    *models.User
	buyer      *models.User
	other      *models.User
	restaurant *models.Restaurant
	bag        *models.MysteryBag
}

func setupReviews(t *testing.T) *reviewFixture {
	t.Helper()
	f := &reviewFixture{db: newTestDB(t)}
	f.manager, _ = newUser(t, f.db, "m@example.com", models.RoleRestaurantManager)
	f.buyer, _ = newUser(t, f.db, "b@example.com", models.RoleCustomer)
	f.other, _ = newUser(t, f.db, "o@example.com", models.RoleCustomer)
	f.restaurant = newRestaurant(t, f.db, f.manager.ID)
	f.bag = newBag(t, f.db, f.restaurant.ID, 10)
	return f
}

func (f *reviewFixture) buy(t *testing.T, customerID uint) *models.BagSale {
	t.Helper()
	sale, err := PurchaseBag(f.db, PurchaseInput{BagID: f.bag.ID, CustomerID: customerID, Quantity: 1}, now)
	require.NoError(t, err)
	return sale
}

func bagReview(saleID uint, overall int) *models.MysteryBagReview {
	return &models.MysteryBagReview{
		SaleID: saleID, OverallRating: overall,
		ValueRating: 5, FoodQualityRating: 4, QuantityRating: 4, VarietyRating: 3, SurpriseRating: 5, FreshnessRating: 4,
	}
}

func TestRestaurantReviewRequiresOwnPurchaseOnce(t *testing.T) {
	f := setupReviews(t)
	sale := f.buy(t, f.buyer.ID)

	err := CreateRestaurantReview(f.db, f.other.ID, &models.RestaurantReview{SaleID: sale.ID, OverallRating: 4})
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	err = CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{SaleID: sale.ID, OverallRating: 6})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	err = CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{SaleID: sale.ID, OverallRating: 4, HygieneRating: ptr(0)})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	review := &models.RestaurantReview{SaleID: sale.ID, OverallRating: 4, HygieneRating: ptr(5)}
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, review))
	assert.True(t, review.IsVerifiedPurchase)
	assert.True(t, review.IsApproved)
	assert.Equal(t, f.restaurant.ID, review.RestaurantID)

	err = CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{SaleID: sale.ID, OverallRating: 2})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReviewed)
}

func TestReviewTimestampsAreServerSide(t *testing.T) {
	f := setupReviews(t)
	backdated := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	rr := &models.RestaurantReview{SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 5, CreatedAt: backdated, UpdatedAt: backdated}
	rr.HelpfulVotes = 40
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, rr))
	assert.WithinDuration(t, time.Now(), rr.CreatedAt, time.Minute)
	assert.Zero(t, rr.HelpfulVotes)

	br := bagReview(f.buy(t, f.buyer.ID).ID, 4)
	br.CreatedAt = time.Now().Add(365 * 24 * time.Hour)
	require.NoError(t, CreateBagReview(f.db, f.buyer.ID, br))
	assert.WithinDuration(t, time.Now(), br.CreatedAt, time.Minute)

	var stored models.RestaurantReview
	require.NoError(t, f.db.First(&stored, rr.ID).Error)
	assert.True(t, stored.CreatedAt.After(backdated))
}

func TestReviewRollupsFollowCreationAndModeration(t *testing.T) {
	f := setupReviews(t)
	first := &models.RestaurantReview{SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 5}
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, first))
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 2}))

	var r models.Restaurant
	require.NoError(t, f.db.First(&r, f.restaurant.ID).Error)
	require.NotNil(t, r.Rating)
	assert.InDelta(t, 3.5, *r.Rating, 1e-9)
	assert.Equal(t, 2, r.ReviewsCount)

	require.NoError(t, Moderate(f.db, models.ReviewTypeRestaurant, first.ID, ActionHide, "spam", now))
	require.NoError(t, f.db.First(&r, f.restaurant.ID).Error)
	assert.InDelta(t, 2.0, *r.Rating, 1e-9)
	assert.Equal(t, 1, r.ReviewsCount)

	assert.Equal(t, 400, apperrors.HTTPStatus(Moderate(f.db, models.ReviewTypeRestaurant, first.ID, "delete", "", now)))
}

func TestBagReviewRollup(t *testing.T) {
	f := setupReviews(t)
	require.NoError(t, CreateBagReview(f.db, f.buyer.ID, bagReview(f.buy(t, f.buyer.ID).ID, 4)))
	require.NoError(t, CreateBagReview(f.db, f.other.ID, bagReview(f.buy(t, f.other.ID).ID, 3)))

	var b models.MysteryBag
	require.NoError(t, f.db.First(&b, f.bag.ID).Error)
	require.NotNil(t, b.AverageRating)
	assert.InDelta(t, 3.5, *b.AverageRating, 1e-9)
	assert.Equal(t, 2, b.TotalReviews)

	bad := bagReview(f.buy(t, f.buyer.ID).ID, 4)
	bad.FreshnessRating = 0
	assert.Equal(t, 400, apperrors.HTTPStatus(CreateBagReview(f.db, f.buyer.ID, bad)))
}

func TestVoteHelpful(t *testing.T) {
	f := setupReviews(t)
	review := &models.RestaurantReview{SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 4}
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, review))

	_, err := VoteHelpful(f.db, models.ReviewTypeRestaurant, review.ID, f.buyer.ID, true)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	res, err := VoteHelpful(f.db, models.ReviewTypeRestaurant, review.ID, f.other.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.HelpfulVotes)
	assert.Equal(t, 100.0, res.HelpfulnessScore)

	res, err = VoteHelpful(f.db, models.ReviewTypeRestaurant, review.ID, f.other.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.HelpfulVotes)

	res, err = VoteHelpful(f.db, models.ReviewTypeRestaurant, review.ID, f.other.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.HelpfulVotes)
	assert.Equal(t, 1, res.UnhelpfulVotes)
	assert.Equal(t, 0.0, res.HelpfulnessScore)

	_, err = VoteHelpful(f.db, "menu_item", review.ID, f.other.ID, true)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	_, err = VoteHelpful(f.db, models.ReviewTypeMysteryBag, review.ID+100, f.other.ID, true)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestFlagAndModerate(t *testing.T) {
	f := setupReviews(t)
	review := bagReview(f.buy(t, f.buyer.ID).ID, 1)
	require.NoError(t, CreateBagReview(f.db, f.buyer.ID, review))

	_, err := FlagReview(f.db, models.ReviewTypeMysteryBag, review.ID, f.other.ID, models.FlagSpam, "copy-paste")
	require.NoError(t, err)
	_, err = FlagReview(f.db, models.ReviewTypeMysteryBag, review.ID, f.other.ID, models.FlagSpam, "")
	assert.Equal(t, 409, apperrors.HTTPStatus(err))

	var got models.MysteryBagReview
	require.NoError(t, f.db.First(&got, review.ID).Error)
	assert.True(t, got.IsFlagged)
	assert.Equal(t, "spam", got.FlagReason)

	require.NoError(t, Moderate(f.db, models.ReviewTypeMysteryBag, review.ID, ActionApprove, "fine", now))
	require.NoError(t, f.db.First(&got, review.ID).Error)
	assert.False(t, got.IsFlagged)
	assert.NotNil(t, got.ModeratedAt)

	var flag models.ReviewFlag
	require.NoError(t, f.db.First(&flag, "review_id = ?", review.ID).Error)
	assert.True(t, flag.IsReviewed)
	assert.Equal(t, "approve", flag.ModeratorAction)
}

func TestRespondToReview(t *testing.T) {
	f := setupReviews(t)
	review := &models.RestaurantReview{SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 3}
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, review))

	err := RespondToReview(f.db, models.ReviewTypeRestaurant, review.ID, f.other.ID, "thanks", now)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	require.NoError(t, RespondToReview(f.db, models.ReviewTypeRestaurant, review.ID, f.manager.ID, "Thanks for visiting!", now))
	var got models.RestaurantReview
	require.NoError(t, f.db.First(&got, review.ID).Error)
	assert.Equal(t, "Thanks for visiting!", got.RestaurantResponse)
	assert.NotNil(t, got.RestaurantRespondedAt)
}

func TestReviewSummary(t *testing.T) {
	f := setupReviews(t)
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{
		SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 5, FoodQualityRating: ptr(4),
	}))
	require.NoError(t, CreateRestaurantReview(f.db, f.buyer.ID, &models.RestaurantReview{
		SaleID: f.buy(t, f.buyer.ID).ID, OverallRating: 4, FoodQualityRating: ptr(5), ServiceRating: ptr(3),
	}))

	s, err := RestaurantReviewSummary(f.db, f.restaurant.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalReviews)
	assert.InDelta(t, 4.5, *s.AverageRating, 1e-9)
	assert.Equal(t, 1, s.Distribution[5])
	assert.Equal(t, 2, s.RecentReviews)
	assert.InDelta(t, 4.5, s.CategoryAverages["food_quality_rating"], 1e-9)
	assert.InDelta(t, 3.0, s.CategoryAverages["service_rating"], 1e-9)
	assert.NotContains(t, s.CategoryAverages, "hygiene_rating")

	empty, err := BagReviewSummary(f.db, f.bag.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, empty.AverageRating)
}
