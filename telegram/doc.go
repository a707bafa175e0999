// Package telegram is a small Bot API client and long-poll update loop.
//
// Only the methods the voice pipeline needs are implemented: getMe,
// getUpdates, sendMessage, getFile and file download. Requests go through
// httpclient, so transport failures are classified and never expose the bot
// token embedded in the URL.
package telegram
