// Package scheduler computes table turnover for a day of bookings.
//
// For every booking it derives the time the table is needed back, the flip
// buffer before the next booking on the same table and a venue-wide clear
// order. The computation is a pure function of the booking set.
package scheduler
