// Package capm turns close-price tables into the inputs of a mean-variance
// optimization: log returns, market betas, market parameters, and the
// CAPM-implied expected returns and covariance (or the empirical one).
//
// Every function is pure. Inputs are never modified.
package capm
