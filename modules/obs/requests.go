package obs

import (
	"github.com/sirupsen/logrus"
)

// Media states reported by GetMediaInputStatus.
const (
	MediaStatePlaying = "OBS_MEDIA_STATE_PLAYING"
	MediaStateEnded   = "OBS_MEDIA_STATE_ENDED"
	MediaStateNone    = "OBS_MEDIA_STATE_NONE"
)

const inputKindMediaSource = "ffmpeg_source"

// MediaInputStatus is a point-in-time playback snapshot of a media source.
type MediaInputStatus struct {
	State          string `json:"mediaState"`
	DurationMillis int64  `json:"mediaDuration"`
	CursorMillis   int64  `json:"mediaCursor"`
}

type sceneListResponse struct {
	Scenes []struct {
		SceneName string `json:"sceneName"`
	} `json:"scenes"`
}

type inputListResponse struct {
	Inputs []struct {
		InputName string `json:"inputName"`
	} `json:"inputs"`
}

type videoSettingsResponse struct {
	BaseWidth  int `json:"baseWidth"`
	BaseHeight int `json:"baseHeight"`
}

type sceneItemIDResponse struct {
	SceneItemID int `json:"sceneItemId"`
}

// SceneNames returns the names of all scenes in the current collection.
func (c *Client) SceneNames() ([]string, error) {
	var resp sceneListResponse
	if err := c.call("GetSceneList", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Scenes))
	for _, s := range resp.Scenes {
		names = append(names, s.SceneName)
	}
	return names, nil
}

// InputNames returns the names of all inputs in the current collection.
func (c *Client) InputNames() ([]string, error) {
	var resp inputListResponse
	if err := c.call("GetInputList", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Inputs))
	for _, i := range resp.Inputs {
		names = append(names, i.InputName)
	}
	return names, nil
}

// EnsureSource creates the scene and the media source bound to it if either
// is missing. Existing pairs are left untouched, so the call is idempotent
// and safe to make defensively before every use.
func (c *Client) EnsureSource(scene, source string) error {
	scenes, err := c.SceneNames()
	if err != nil {
		return err
	}
	if needsSceneCreation(scenes, scene) {
		c.logger.WithField("scene", scene).Info("Creating scene in OBS")
		if err := c.call("CreateScene", map[string]interface{}{
			"sceneName": scene,
		}, nil); err != nil {
			return err
		}
	}

	inputs, err := c.InputNames()
	if err != nil {
		return err
	}
	if needsInputCreation(inputs, source) {
		c.logger.WithFields(logrus.Fields{
			"scene":  scene,
			"source": source,
		}).Info("Creating media source in OBS")
		if err := c.call("CreateInput", map[string]interface{}{
			"sceneName":        scene,
			"inputName":        source,
			"inputKind":        inputKindMediaSource,
			"inputSettings":    map[string]interface{}{"local_file": ""},
			"sceneItemEnabled": true,
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// needsSceneCreation reports whether the scene is absent from the list.
func needsSceneCreation(scenes []string, scene string) bool {
	for _, name := range scenes {
		if name == scene {
			return false
		}
	}
	return true
}

// needsInputCreation reports whether the input is absent from the list.
func needsInputCreation(inputs []string, input string) bool {
	for _, name := range inputs {
		if name == input {
			return false
		}
	}
	return true
}

// SetMedia swaps the source's backing file. Restart-on-activate and
// close-when-inactive are always requested so OBS restarts playback when
// the scene goes live and releases the file when it leaves the air.
func (c *Client) SetMedia(source, absolutePath string) error {
	return c.call("SetInputSettings", map[string]interface{}{
		"inputName": source,
		"inputSettings": map[string]interface{}{
			"local_file":          absolutePath,
			"restart_on_activate": true,
			"close_when_inactive": true,
		},
		"overlay": true,
	}, nil)
}

// MediaStatus returns the playback snapshot for a media source.
func (c *Client) MediaStatus(source string) (MediaInputStatus, error) {
	var status MediaInputStatus
	err := c.call("GetMediaInputStatus", map[string]interface{}{
		"inputName": source,
	}, &status)
	return status, err
}

// SetActiveScene switches the on-air program scene. This is the visible cut.
func (c *Client) SetActiveScene(scene string) error {
	return c.call("SetCurrentProgramScene", map[string]interface{}{
		"sceneName": scene,
	}, nil)
}

// ApplySourceDefaults sets volume, audio monitoring and a scale-to-fit
// transform on the source. These are cosmetic: failures are logged and
// swallowed so they never abort playback.
func (c *Client) ApplySourceDefaults(scene, source string) {
	log := c.logger.WithFields(logrus.Fields{
		"scene":  scene,
		"source": source,
	})

	if err := c.call("SetInputVolume", map[string]interface{}{
		"inputName":      source,
		"inputVolumeMul": 1.0,
	}, nil); err != nil {
		log.WithError(err).Warn("Failed to set input volume")
	}

	if err := c.call("SetInputAudioMonitorType", map[string]interface{}{
		"inputName":   source,
		"monitorType": "OBS_MONITORING_TYPE_MONITOR_AND_OUTPUT",
	}, nil); err != nil {
		log.WithError(err).Warn("Failed to set audio monitor type")
	}

	var video videoSettingsResponse
	if err := c.call("GetVideoSettings", nil, &video); err != nil {
		log.WithError(err).Warn("Failed to get canvas dimensions")
		return
	}

	var item sceneItemIDResponse
	if err := c.call("GetSceneItemId", map[string]interface{}{
		"sceneName":  scene,
		"sourceName": source,
	}, &item); err != nil {
		log.WithError(err).Warn("Failed to get scene item id")
		return
	}

	if err := c.call("SetSceneItemTransform", map[string]interface{}{
		"sceneName":   scene,
		"sceneItemId": item.SceneItemID,
		"sceneItemTransform": map[string]interface{}{
			"boundsType":   "OBS_BOUNDS_SCALE_INNER",
			"boundsWidth":  video.BaseWidth,
			"boundsHeight": video.BaseHeight,
			"positionX":    0,
			"positionY":    0,
			"alignment":    5,
		},
	}, nil); err != nil {
		log.WithError(err).Warn("Failed to set scale-to-fit transform")
		return
	}

	log.WithFields(logrus.Fields{
		"canvas_width":  video.BaseWidth,
		"canvas_height": video.BaseHeight,
	}).Debug("Source defaults applied")
}
