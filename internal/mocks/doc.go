/*
Package mocks will have all the mocks of the library, we'll try to use mocking using blackbox
testing and integration tests whenever is possible.
*/
package mocks

// Limiter mocks.
//go:generate mockery -output ./ -dir ../../ -name Limiter

// limit mocks.
//go:generate mockery -output ./limit -dir ../../limit -name Algorithm
//go:generate mockery -output ./limit -dir ../../limit -name Aggregator

// metrics mocks.
//go:generate mockery -output ./metrics -dir ../../metrics -name Recorder
