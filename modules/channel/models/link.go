package models

import (
	"strings"
)

// LinkKind classifies a schedule item's link once, so the rest of the
// pipeline dispatches on a tagged variant instead of re-matching strings.
type LinkKind int

const (
	// LinkSceneCue requests a pure compositor scene switch, no media.
	LinkSceneCue LinkKind = iota
	// LinkRemoteVideo is a video-hosting URL fetched through yt-dlp.
	LinkRemoteVideo
	// LinkCloudDrive is a Google Drive URL fetched as a direct download.
	LinkCloudDrive
	// LinkLocalFile is anything else, tried as a local path.
	LinkLocalFile
)

const sceneCuePrefix = "SCENE:"

// ClassifyLink determines the link kind for a schedule item link.
func ClassifyLink(link string) LinkKind {
	if len(link) >= len(sceneCuePrefix) && strings.EqualFold(link[:len(sceneCuePrefix)], sceneCuePrefix) {
		return LinkSceneCue
	}
	if strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be") {
		return LinkRemoteVideo
	}
	if strings.Contains(link, "drive.google.com") || strings.Contains(link, "docs.google.com") {
		return LinkCloudDrive
	}
	return LinkLocalFile
}

// SceneCueName extracts the target scene name from a scene directive link.
// Returns an empty string if the link is not a scene directive.
func SceneCueName(link string) string {
	if ClassifyLink(link) != LinkSceneCue {
		return ""
	}
	return strings.TrimSpace(link[len(sceneCuePrefix):])
}

func (k LinkKind) String() string {
	switch k {
	case LinkSceneCue:
		return "scene_cue"
	case LinkRemoteVideo:
		return "remote_video"
	case LinkCloudDrive:
		return "cloud_drive"
	default:
		return "local_file"
	}
}
