package vaudio

// Version is the release of the engine and its command line tools.
const Version = "0.4.0"
