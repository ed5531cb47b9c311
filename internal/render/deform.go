package render

import (
	"spine2d/internal/skel"
)

// updatePose 原地重算当前姿势下所有网格附件的顶点
// 缺少缓存条目时立即返回错误，之前已处理的附件保持新值
func updatePose(pose *skel.Pose, cache *Cache) error {
	anim := pose.Animation()
	for item := range pose.Attachments() {
		if item.Attachment == nil {
			continue
		}
		kind := item.Attachment.Kind
		if kind != skel.AttachmentMesh && kind != skel.AttachmentWeightedMesh {
			continue
		}
		info, err := cache.lookup(pose.SkinKey, item.Slot.Name, item.Key)
		if err != nil {
			return err
		}
		var ffd *skel.FFDSample
		track := anim.FFDTrack(pose.SkinKey, item.Slot.Name, item.Key)
		if sample, ok := skel.SampleFFD(track, pose.Time); ok {
			ffd = &sample
		}
		switch info.Kind {
		case skel.AttachmentMesh:
			deformMesh(info, ffd)
		case skel.AttachmentWeightedMesh:
			blendVertices(info.Position, info.source.Vertices, pose, ffd)
		}
	}
	return nil
}

// deformMesh 没有 FFD 轨道时恢复绑定姿势
func deformMesh(info *AttachmentInfo, ffd *skel.FFDSample) {
	if ffd == nil {
		copy(info.Position, info.Setup)
		return
	}
	for i, val := range info.Setup {
		info.Position[i] = val + ffd.Offset(i)
	}
}
