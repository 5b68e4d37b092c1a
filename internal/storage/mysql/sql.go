package mysql

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const hotelColumns = `
  h.id, h.name, h.location, h.city, h.description, h.price, h.stars, h.rating,
  h.review_count, h.featured, h.amenities, h.images, h.room_types,
  h.stripe_price_id, h.embedding, h.created_at, h.updated_at`

const insertHotelSQL = `
INSERT INTO hotels
  (id, name, location, city, description, price, stars, rating, review_count,
   featured, amenities, images, room_types, stripe_price_id, embedding, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateHotelSQL = `
UPDATE hotels SET
  name            = ?,
  location        = ?,
  city            = ?,
  description     = ?,
  price           = ?,
  stars           = ?,
  rating          = ?,
  featured        = ?,
  amenities       = ?,
  images          = ?,
  room_types      = ?,
  stripe_price_id = ?,
  embedding       = ?,
  updated_at      = ?
WHERE id = ?
`

const updateHotelPriceSQL = `UPDATE hotels SET price = ?, updated_at = ? WHERE id = ?`

const setHotelEmbeddingSQL = `UPDATE hotels SET embedding = ? WHERE id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const existsHotelSQL = `SELECT 1 FROM hotels WHERE id = ?`

const getHotelSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE h.id = ?
`

const listHotelsSQL = `SELECT` + hotelColumns + `
FROM hotels h
ORDER BY h.created_at, h.id
`

// LIKE on utf8mb4_0900_ai_ci is already case-insensitive.
const searchHotelsTextSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE h.name LIKE ? OR h.location LIKE ? OR h.description LIKE ?
ORDER BY h.rating DESC, h.id
LIMIT ?
`

const vectorCandidatesSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE h.embedding IS NOT NULL
`

const bumpReviewCountSQL = `UPDATE hotels SET review_count = review_count + 1 WHERE id = ?`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const bookingColumns = `
  b.id, b.user_id, b.hotel_id, b.room_number, b.check_in_date, b.check_out_date,
  b.number_of_guests, b.number_of_rooms, b.total_amount, b.payment_status,
  b.payment_reference, b.special_requests, b.guest_name, b.guest_email, b.guest_phone,
  b.created_at, b.updated_at`

// the joined hotel summary; NULL when the hotel has been deleted
const bookingHotelColumns = `,
  h.id, h.name, h.location, h.city, h.images, h.rating, h.amenities, h.price`

const insertBookingSQL = `
INSERT INTO bookings
  (id, user_id, hotel_id, room_number, check_in_date, check_out_date, number_of_guests,
   number_of_rooms, total_amount, payment_status, payment_reference, special_requests,
   guest_name, guest_email, guest_phone, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBookingSQL = `SELECT` + bookingColumns + bookingHotelColumns + `
FROM bookings b
LEFT JOIN hotels h ON h.id = b.hotel_id
WHERE b.id = ?
`

// listBookingsPrefix is completed with WHERE, ORDER BY and LIMIT by the repo.
const listBookingsPrefix = `SELECT` + bookingColumns + bookingHotelColumns + `
FROM bookings b
LEFT JOIN hotels h ON h.id = b.hotel_id
`

const countBookingsPrefix = `SELECT COUNT(*) FROM bookings b `

const statusTotalsSQL = `
SELECT payment_status, COUNT(*), COALESCE(SUM(total_amount), 0)
FROM bookings
WHERE user_id = ?
GROUP BY payment_status
`

const bookingStatsSQL = `
SELECT
  COUNT(*),
  COALESCE(SUM(CASE WHEN payment_status = 'PAID' THEN total_amount ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN payment_status = 'PAID' AND check_in_date >= ? THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN payment_status = 'PAID' AND check_out_date < ? THEN 1 ELSE 0 END), 0)
FROM bookings
WHERE user_id = ?
`

// The status predicate makes this a compare-and-set: zero rows affected means
// another writer moved the booking first.
const transitionStatusSQL = `
UPDATE bookings SET payment_status = ?, updated_at = ?
WHERE id = ? AND payment_status = ?
`

const setPaymentReferenceSQL = `UPDATE bookings SET payment_reference = ?, updated_at = ? WHERE id = ?`

const bookingExistsSQL = `SELECT 1 FROM bookings WHERE id = ?`

// sortColumns maps the accepted sortBy names to columns. Never interpolate
// anything that is not a value of this map.
var sortColumns = map[string]string{
	"createdAt":    "b.created_at",
	"checkInDate":  "b.check_in_date",
	"checkOutDate": "b.check_out_date",
	"totalAmount":  "b.total_amount",
}

// -----------------------------------------------------------------------------
// REVIEWS & LOCATIONS
// -----------------------------------------------------------------------------

// Note: `comment` is a keyword in some dialects; keep it quoted.
const insertReviewSQL = "INSERT INTO reviews (id, hotel_id, user_id, rating, `comment`, created_at) VALUES (?, ?, ?, ?, ?, ?)"

const listReviewsSQL = "SELECT id, hotel_id, user_id, rating, `comment`, created_at FROM reviews WHERE hotel_id = ? ORDER BY created_at DESC, id DESC"

const insertLocationSQL = `INSERT INTO locations (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`

const getLocationSQL = `SELECT id, name, created_at, updated_at FROM locations WHERE id = ?`

const listLocationsSQL = `SELECT id, name, created_at, updated_at FROM locations ORDER BY name, id`

const updateLocationSQL = `UPDATE locations SET name = ?, updated_at = ? WHERE id = ?`

const deleteLocationSQL = `DELETE FROM locations WHERE id = ?`

const existsLocationSQL = `SELECT 1 FROM locations WHERE id = ?`
