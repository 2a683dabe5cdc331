package nimcheck

// Version is overwritten at release build time.
var Version = "current"
