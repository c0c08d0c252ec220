// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package txn

import "regexp"

// typePattern associates a transaction type with the word-boundary
// patterns that select it. Patterns are matched case-insensitively
// against endpoint paths or operation names.
type typePattern struct {
	txnType  Type
	patterns []*regexp.Regexp
}

func compile(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`(?i)\b`+w+`\b`))
	}
	return out
}

// classificationTable is consulted in order; the first matching type
// wins. Word boundaries keep near-misses apart: "bookmarks" does not
// contain the word "booking" or "book", so it never classifies as a
// booking.
var classificationTable = []typePattern{
	{TypeAdoption, compile("adopt", "adoption", "adoptions", "rehome")},
	{TypeFavorite, compile("favorite", "favorites", "favourite", "favourites", "wishlist")},
	{TypeBooking, compile("book", "booking", "bookings", "appointment", "appointments", "visit", "visits")},
	{TypeRSVP, compile("rsvp", "rsvps", "attend", "attendance")},
	{TypeSocial, compile("like", "likes", "comment", "comments", "follow", "unfollow", "share", "post", "posts")},
	{TypeProfileUpdate, compile("profile", "profiles", "avatar", "settings")},
}

// Classify maps an endpoint path or operation name to a transaction
// type. Unmatched mutating calls classify as the generic mutation type,
// unmatched reads as the generic query type.
func Classify(operation string, mutating bool) Type {
	for _, entry := range classificationTable {
		for _, re := range entry.patterns {
			if re.MatchString(operation) {
				return entry.txnType
			}
		}
	}
	if mutating {
		return TypeMutation
	}
	return TypeQuery
}
