// Package api assembles the notifier's HTTP surface on a chi router.
package api
