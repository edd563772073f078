// Package fcm sends push notifications to Android and iOS devices through
// Firebase Cloud Messaging using firebase.google.com/go/v4.
package fcm
